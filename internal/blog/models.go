// Package blog holds the demo model family served by polyctl: a base blog
// and three subtypes that embed it.
package blog

// BlogBase is the common ancestor of every blog.
type BlogBase struct {
	ID   string
	Name string `gork:"name" validate:"required,max=100"`
	Slug string `gork:"slug" validate:"required,max=100"`
}

// GetID returns the store key.
func (b *BlogBase) GetID() string { return b.ID }

// SetID sets the store key.
func (b *BlogBase) SetID(id string) { b.ID = id }

// BlogOne adds an info line.
type BlogOne struct {
	BlogBase
	Info string `gork:"info" validate:"required,max=100"`
}

// BlogTwo has no fields of its own.
type BlogTwo struct {
	BlogBase
}

// BlogThree requires info and about to be unique together.
type BlogThree struct {
	BlogBase
	Info  string `gork:"info" validate:"required,max=100"`
	About string `gork:"about" validate:"required,max=100"`
}
