package blog

import (
	"github.com/gork-labs/polymorphic/pkg/polymorphic"
	"github.com/gork-labs/polymorphic/pkg/serializer"
	"github.com/gork-labs/polymorphic/pkg/store"
)

// DispatcherName names the blog dispatcher in configuration errors.
const DispatcherName = "BlogPolymorphicSerializer"

// NewBaseSerializer serializes plain blogs.
func NewBaseSerializer(st *store.Memory) *serializer.ModelSerializer[BlogBase] {
	return serializer.NewModelSerializer[BlogBase](
		serializer.WithFields("name", "slug"),
		serializer.WithSaver(st),
	)
}

// NewOneSerializer serializes BlogOne.
func NewOneSerializer(st *store.Memory) *serializer.ModelSerializer[BlogOne] {
	return serializer.NewModelSerializer[BlogOne](
		serializer.WithFields("name", "slug", "info"),
		serializer.WithSaver(st),
	)
}

// NewTwoSerializer serializes BlogTwo.
func NewTwoSerializer(st *store.Memory) *serializer.ModelSerializer[BlogTwo] {
	return serializer.NewModelSerializer[BlogTwo](
		serializer.WithFields("name", "slug"),
		serializer.WithSaver(st),
	)
}

// NewThreeSerializer serializes BlogThree and enforces that info and about
// are unique together.
func NewThreeSerializer(st *store.Memory) *serializer.ModelSerializer[BlogThree] {
	return serializer.NewModelSerializer[BlogThree](
		serializer.WithFields("name", "slug", "info", "about"),
		serializer.WithSaver(st),
		serializer.WithValidators(serializer.UniqueTogether[BlogThree](st, "info", "about")),
	)
}

// Registry returns the subtype registry backed by st.
func Registry(st *store.Memory) map[string]serializer.Serializer {
	return map[string]serializer.Serializer{
		"BlogBase":  NewBaseSerializer(st),
		"BlogOne":   NewOneSerializer(st),
		"BlogTwo":   NewTwoSerializer(st),
		"BlogThree": NewThreeSerializer(st),
	}
}

// NewDispatcher builds the blog dispatcher. An empty field selects
// polymorphic.DefaultField.
func NewDispatcher(st *store.Memory, field string, rejectTypeChange bool) (*polymorphic.Dispatcher, error) {
	return polymorphic.New(DispatcherName, polymorphic.Config{
		Registry:         Registry(st),
		Field:            field,
		RejectTypeChange: rejectTypeChange,
	})
}
