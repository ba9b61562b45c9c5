package filter

// AttrType es el tipo declarado de un atributo del esquema.
type AttrType int

const (
	TypeText AttrType = iota
	TypeNumber
	TypeEnum
	TypeTemporal
	TypeBoolean
)

func (t AttrType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeNumber:
		return "number"
	case TypeEnum:
		return "enum"
	case TypeTemporal:
		return "temporal"
	case TypeBoolean:
		return "boolean"
	}
	return "unknown"
}

// Attribute describe una columna filtrable.
//
// TextCast declara que la columna admite búsqueda por patrón (`:`) a
// través de una conversión explícita a texto. Los enumerados la necesitan.
type Attribute struct {
	Name     string
	Column   string
	Type     AttrType
	Nullable bool
	TextCast bool
}

// Schema es el conjunto de atributos conocidos de una entidad.
type Schema struct {
	model string
	attrs map[string]Attribute
}

// NewSchema construye un esquema. Column toma el valor de Name si viene vacío.
func NewSchema(model string, attrs ...Attribute) Schema {
	s := Schema{model: model, attrs: make(map[string]Attribute, len(attrs))}
	for _, a := range attrs {
		if a.Column == "" {
			a.Column = a.Name
		}
		s.attrs[a.Name] = a
	}
	return s
}

// Model devuelve el nombre de la entidad, usado en los mensajes de error.
func (s Schema) Model() string { return s.model }

// Lookup resuelve un nombre de campo (camelCase o snake_case).
func (s Schema) Lookup(field string) (Attribute, bool) {
	a, ok := s.attrs[ToSnake(field)]
	return a, ok
}

// Attributes devuelve los atributos declarados.
func (s Schema) Attributes() []Attribute {
	out := make([]Attribute, 0, len(s.attrs))
	for _, a := range s.attrs {
		out = append(out, a)
	}
	return out
}
