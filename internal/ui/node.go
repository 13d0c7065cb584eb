package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Node is a single overlay element. Class and ID select its style; Bounds is resolved from
// the style each frame unless the owner places the node itself.
type Node struct {
	Class  string
	ID     string
	Text   string
	Bounds rl.Rectangle
	// Placed nodes keep the Bounds their owner set; only colors come from the style.
	Placed bool
}

func NewNode(class, id, text string) *Node {
	return &Node{Class: class, ID: id, Text: text}
}
