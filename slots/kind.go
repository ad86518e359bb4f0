package slots

import "fmt"

// Handle is an object name issued by an external subsystem, such as a
// graphics driver. Zero is never a valid name.
type Handle uint32

// Kind tags the category of an external handle. It selects which destroyer
// releases the handle at Clean.
type Kind uint8

const (
	Texture Kind = iota
	ShaderProgram
	VertexArray
	VertexBuffer
	IndexBuffer
	Framebuffer

	kindCount
)

var kindNames = [kindCount]string{
	Texture:       "texture",
	ShaderProgram: "shader_program",
	VertexArray:   "vertex_array",
	VertexBuffer:  "vertex_buffer",
	IndexBuffer:   "index_buffer",
	Framebuffer:   "framebuffer",
}

// Kinds lists every valid kind in declaration order.
func Kinds() []Kind {
	ks := make([]Kind, kindCount)
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k < kindCount
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// ParseKind returns the kind named s, as printed by String.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("slots: unknown resource kind %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("slots: invalid resource kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}
