package polymorphic

// Discriminator allows instances to name their subtype explicitly.
// When an instance implements this interface and the value is a registry
// key, the dispatcher uses it instead of matching on the instance type.
type Discriminator interface {
	// DiscriminatorValue returns the registry key for this instance.
	DiscriminatorValue() string
}
