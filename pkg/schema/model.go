package schema

// Schema is the read-only view of a model used for request validation.
type Schema interface {
	// HasField reports whether name is a field that can be filtered, sorted,
	// aggregated or filled.
	HasField(name string) bool

	// RelatedModel returns the model reached through the relation called
	// name. ok is false when name is not a relation.
	RelatedModel(name string) (related Schema, ok bool)
}

// FieldType is the storage type of a field.
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeInteger  FieldType = "integer"
	TypeFloat    FieldType = "float"
	TypeBoolean  FieldType = "boolean"
	TypeDateTime FieldType = "datetime"
	TypeUUID     FieldType = "uuid"
)

// RelationKind distinguishes the owning side of a relation.
type RelationKind string

const (
	// ManyToOne relations hold the foreign key on the declaring model.
	ManyToOne RelationKind = "many_to_one"
	// OneToMany relations are the reverse side of a foreign key on the related model.
	OneToMany RelationKind = "one_to_many"
)

// Field is a concrete column of a model.
type Field struct {
	Name   string    `yaml:"name"`
	Column string    `yaml:"column"`
	Type   FieldType `yaml:"type"`
}

// Relation links a model to another model.
type Relation struct {
	Name   string       `yaml:"name"`
	Model  string       `yaml:"model"`
	Kind   RelationKind `yaml:"kind"`
	Column string       `yaml:"column"`

	target *Model
}

// Target returns the related model. It is set when the registry is built.
func (r *Relation) Target() *Model {
	return r.target
}

// Model describes a table and its relations.
type Model struct {
	Name           string      `yaml:"name"`
	Table          string      `yaml:"table"`
	PrimaryKey     string      `yaml:"primary_key"`
	PrimaryKeyType FieldType   `yaml:"primary_key_type"`
	Fields         []Field     `yaml:"fields"`
	Relations      []*Relation `yaml:"relations"`

	fields    map[string]*Field
	relations map[string]*Relation
	columns   map[string]string
}

// HasField reports whether name is a concrete field or a many-to-one
// relation (which is backed by a column on this model).
func (m *Model) HasField(name string) bool {
	if _, ok := m.fields[name]; ok {
		return true
	}
	if rel, ok := m.relations[name]; ok {
		return rel.Kind == ManyToOne
	}
	return false
}

// RelatedModel implements Schema.
func (m *Model) RelatedModel(name string) (Schema, bool) {
	rel, ok := m.relations[name]
	if !ok || rel.target == nil {
		return nil, false
	}
	return rel.target, true
}

// Field returns the field called name.
func (m *Model) Field(name string) (*Field, bool) {
	f, ok := m.fields[name]
	return f, ok
}

// Relation returns the relation called name.
func (m *Model) Relation(name string) (*Relation, bool) {
	r, ok := m.relations[name]
	return r, ok
}

// Column returns the table column backing a field or many-to-one relation.
// ok is false for anything else.
func (m *Model) Column(name string) (string, bool) {
	if f, ok := m.fields[name]; ok {
		return f.Column, true
	}
	if rel, ok := m.relations[name]; ok && rel.Kind == ManyToOne {
		return rel.Column, true
	}
	return "", false
}

// FieldName maps a table column back to the field name exposed in records.
func (m *Model) FieldName(column string) string {
	if name, ok := m.columns[column]; ok {
		return name
	}
	return column
}

// TypeOf returns the type of a field. Many-to-one relations take the type of
// the related primary key. Unknown names are treated as strings.
func (m *Model) TypeOf(name string) FieldType {
	if f, ok := m.fields[name]; ok {
		return f.Type
	}
	if rel, ok := m.relations[name]; ok && rel.Kind == ManyToOne && rel.target != nil {
		return rel.target.PrimaryKeyType
	}
	return TypeString
}

// PrimaryKeyColumn returns the column of the primary key.
func (m *Model) PrimaryKeyColumn() string {
	col, _ := m.Column(m.PrimaryKey)
	return col
}

// index fills the lookup maps and defaults. The primary key is added as a
// field when it was not declared explicitly.
func (m *Model) index() {
	if m.Table == "" {
		m.Table = m.Name
	}
	if m.PrimaryKey == "" {
		m.PrimaryKey = "id"
	}
	if m.PrimaryKeyType == "" {
		m.PrimaryKeyType = TypeInteger
	}

	declared := false
	for _, f := range m.Fields {
		if f.Name == m.PrimaryKey {
			declared = true
			break
		}
	}
	if !declared {
		m.Fields = append([]Field{{Name: m.PrimaryKey, Type: m.PrimaryKeyType}}, m.Fields...)
	}

	m.fields = make(map[string]*Field, len(m.Fields))
	m.columns = make(map[string]string, len(m.Fields)+len(m.Relations))
	for i := range m.Fields {
		f := &m.Fields[i]
		if f.Column == "" {
			f.Column = f.Name
		}
		if f.Type == "" {
			f.Type = TypeString
		}
		m.fields[f.Name] = f
		m.columns[f.Column] = f.Name
	}

	m.relations = make(map[string]*Relation, len(m.Relations))
	for _, r := range m.Relations {
		m.relations[r.Name] = r
		if r.Kind == ManyToOne && r.Column != "" {
			m.columns[r.Column] = r.Name
		}
	}
}
