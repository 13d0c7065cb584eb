package graphics

import (
	"image/color"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

// Lights is the fixed rig of the viewer: one ambient term and one directional light that
// points from Position toward the origin.
type Lights struct {
	Ambient              color.RGBA
	AmbientIntensity     float32
	Directional          color.RGBA
	DirectionalIntensity float32
	Position             mgl32.Vec3
}

// DefaultLights is white ambient at 1.5 and a white directional light of 2 from
// (5, 10, 7.5).
func DefaultLights() Lights {
	return Lights{
		Ambient:              color.RGBA{255, 255, 255, 255},
		AmbientIntensity:     1.5,
		Directional:          color.RGBA{255, 255, 255, 255},
		DirectionalIntensity: 2,
		Position:             mgl32.Vec3{5, 10, 7.5},
	}
}

// Material colors arrive as sRGB and are lit in linear space. Diffuse follows the Lambert BRDF
// (albedo/π) so intensities read the same as in a three.js scene.
const (
	litVS = `#version 330
in vec3 vertexPosition;
in vec3 vertexNormal;
uniform mat4 mvp;
uniform mat4 matModel;
out vec3 fragPosition;
out vec3 fragNormal;
void main() {
  fragPosition = vec3(matModel * vec4(vertexPosition, 1.0));
  fragNormal = mat3(matModel) * vertexNormal;
  gl_Position = mvp * vec4(vertexPosition, 1.0);
}
`
	litFS = `#version 330
in vec3 fragPosition;
in vec3 fragNormal;
uniform vec4 colDiffuse;
uniform vec3 emissive;
uniform vec3 viewPos;
uniform vec3 lightDir;
uniform vec3 ambientLight;
uniform vec3 directLight;
uniform float specularStrength;
out vec4 finalColor;
const float RECIPROCAL_PI = 0.3183098861837907;
vec3 toLinear(vec3 c) { return pow(c, vec3(2.2)); }
void main() {
  vec3 N = normalize(fragNormal);
  if (!gl_FrontFacing) N = -N;
  vec3 L = normalize(lightDir);
  vec3 V = normalize(viewPos - fragPosition);
  vec3 albedo = toLinear(colDiffuse.rgb) * RECIPROCAL_PI;
  float NdotL = max(dot(N, L), 0.0);
  vec3 color = albedo * (ambientLight + directLight * NdotL);
  float spec = pow(max(dot(N, normalize(L + V)), 0.0), 48.0) * specularStrength;
  color += directLight * spec * (NdotL > 0.0 ? 1.0 : 0.0);
  color += toLinear(emissive);
  finalColor = vec4(pow(color, vec3(1.0 / 2.2)), colDiffuse.a);
}
`
)

const specularStrength = float32(0.15)

// litShader is the part shader and its uniform locations.
type litShader struct {
	shader                    rl.Shader
	emissive, viewPos         int32
	lightDir, ambient, direct int32
	specular                  int32
}

func loadLitShader() litShader {
	s := rl.LoadShaderFromMemory(litVS, litFS)
	return litShader{
		shader:   s,
		emissive: rl.GetShaderLocation(s, "emissive"),
		viewPos:  rl.GetShaderLocation(s, "viewPos"),
		lightDir: rl.GetShaderLocation(s, "lightDir"),
		ambient:  rl.GetShaderLocation(s, "ambientLight"),
		direct:   rl.GetShaderLocation(s, "directLight"),
		specular: rl.GetShaderLocation(s, "specularStrength"),
	}
}

// radiance returns a light color in linear space scaled by intensity.
func radiance(c color.RGBA, intensity float32) []float32 {
	lin := func(v uint8) float32 { return math32.Pow(float32(v)/255, 2.2) * intensity }
	return []float32{lin(c.R), lin(c.G), lin(c.B)}
}

func rgb(c color.RGBA) []float32 {
	return []float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}

// setFrame uploads the per-frame uniforms.
func (s litShader) setFrame(viewPos mgl32.Vec3, l Lights) {
	dir := l.Position.Normalize()
	rl.SetShaderValue(s.shader, s.viewPos, viewPos[:], rl.ShaderUniformVec3)
	rl.SetShaderValue(s.shader, s.lightDir, dir[:], rl.ShaderUniformVec3)
	rl.SetShaderValue(s.shader, s.ambient, radiance(l.Ambient, l.AmbientIntensity), rl.ShaderUniformVec3)
	rl.SetShaderValue(s.shader, s.direct, radiance(l.Directional, l.DirectionalIntensity), rl.ShaderUniformVec3)
	rl.SetShaderValue(s.shader, s.specular, []float32{specularStrength}, rl.ShaderUniformFloat)
}

func (s litShader) setEmissive(c color.RGBA) {
	rl.SetShaderValue(s.shader, s.emissive, rgb(c), rl.ShaderUniformVec3)
}
