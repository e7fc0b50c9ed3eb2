// Package gltf builds glTF 2.0 binary (GLB) scenes from resolved
// zones. Only the subset of the schema the encoder emits is modeled.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package gltf

// Component types.
const (
	ComponentFloat       = 5126
	ComponentUnsignedInt = 5125
)

// Accessor element types.
const (
	TypeScalar = "SCALAR"
	TypeVec2   = "VEC2"
	TypeVec3   = "VEC3"
)

// Buffer view targets.
const (
	TargetArrayBuffer        = 34962
	TargetElementArrayBuffer = 34963
)

// Sampler filter and wrap modes.
const (
	FilterLinear             = 9729
	FilterLinearMipmapLinear = 9987
	WrapRepeat               = 10497
)

// Alpha modes.
const (
	AlphaOpaque = "OPAQUE"
	AlphaMask   = "MASK"
	AlphaBlend  = "BLEND"
)

const (
	extLightsPunctual = "KHR_lights_punctual"
	extTextureWebP    = "EXT_texture_webp"
)

type Document struct {
	Asset              Asset               `json:"asset"`
	Scene              *int                `json:"scene,omitempty"`
	Scenes             []Scene             `json:"scenes,omitempty"`
	Nodes              []Node              `json:"nodes,omitempty"`
	Meshes             []Mesh              `json:"meshes,omitempty"`
	Accessors          []Accessor          `json:"accessors,omitempty"`
	BufferViews        []BufferView        `json:"bufferViews,omitempty"`
	Buffers            []Buffer            `json:"buffers,omitempty"`
	Materials          []Material          `json:"materials,omitempty"`
	Textures           []Texture           `json:"textures,omitempty"`
	Images             []Image             `json:"images,omitempty"`
	Samplers           []Sampler           `json:"samplers,omitempty"`
	Extensions         *DocumentExtensions `json:"extensions,omitempty"`
	ExtensionsUsed     []string            `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string            `json:"extensionsRequired,omitempty"`
}

type Asset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

type Scene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

type Node struct {
	Name        string          `json:"name,omitempty"`
	Mesh        *int            `json:"mesh,omitempty"`
	Translation *[3]float32     `json:"translation,omitempty"`
	Rotation    *[4]float32     `json:"rotation,omitempty"`
	Scale       *[3]float32     `json:"scale,omitempty"`
	Extensions  *NodeExtensions `json:"extensions,omitempty"`
}

type Mesh struct {
	Name       string      `json:"name,omitempty"`
	Primitives []Primitive `json:"primitives"`
}

type Primitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Material   *int           `json:"material,omitempty"`
}

type Accessor struct {
	BufferView    *int      `json:"bufferView,omitempty"`
	ByteOffset    int       `json:"byteOffset,omitempty"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Max           []float32 `json:"max,omitempty"`
	Min           []float32 `json:"min,omitempty"`
}

type BufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset,omitempty"`
	ByteLength int  `json:"byteLength"`
	Target     *int `json:"target,omitempty"`
}

type Buffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

type Material struct {
	Name                 string                `json:"name,omitempty"`
	PBRMetallicRoughness *PBRMetallicRoughness `json:"pbrMetallicRoughness,omitempty"`
	EmissiveFactor       *[3]float32           `json:"emissiveFactor,omitempty"`
	AlphaMode            string                `json:"alphaMode,omitempty"`
	AlphaCutoff          *float32              `json:"alphaCutoff,omitempty"`
	DoubleSided          bool                  `json:"doubleSided,omitempty"`
}

type PBRMetallicRoughness struct {
	BaseColorFactor  *[4]float32  `json:"baseColorFactor,omitempty"`
	BaseColorTexture *TextureInfo `json:"baseColorTexture,omitempty"`
	MetallicFactor   *float32     `json:"metallicFactor,omitempty"`
	RoughnessFactor  *float32     `json:"roughnessFactor,omitempty"`
}

type TextureInfo struct {
	Index int `json:"index"`
}

type Texture struct {
	Name       string             `json:"name,omitempty"`
	Sampler    *int               `json:"sampler,omitempty"`
	Source     *int               `json:"source,omitempty"`
	Extensions *TextureExtensions `json:"extensions,omitempty"`
}

type TextureExtensions struct {
	WebP *WebPSource `json:"EXT_texture_webp,omitempty"`
}

type WebPSource struct {
	Source int `json:"source"`
}

type Image struct {
	Name       string `json:"name,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
}

type Sampler struct {
	MagFilter *int `json:"magFilter,omitempty"`
	MinFilter *int `json:"minFilter,omitempty"`
	WrapS     *int `json:"wrapS,omitempty"`
	WrapT     *int `json:"wrapT,omitempty"`
}

type DocumentExtensions struct {
	Lights *LightsPunctual `json:"KHR_lights_punctual,omitempty"`
}

type LightsPunctual struct {
	Lights []PunctualLight `json:"lights"`
}

type PunctualLight struct {
	Type      string     `json:"type"`
	Name      string     `json:"name,omitempty"`
	Color     [3]float32 `json:"color,omitempty"`
	Intensity float32    `json:"intensity,omitempty"`
	Range     float32    `json:"range,omitempty"`
}

type NodeExtensions struct {
	Light *LightRef `json:"KHR_lights_punctual,omitempty"`
}

type LightRef struct {
	Light int `json:"light"`
}
