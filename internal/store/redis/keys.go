package redis

const (
	// KeyPrefix namespaces every clipsort key.
	KeyPrefix = "clipsort:"
	// KeyCategories is the list holding categories in insertion order.
	KeyCategories = KeyPrefix + "categories"
	// KeyCategorySet mirrors KeyCategories for O(1) duplicate checks.
	KeyCategorySet = KeyCategories + ":set"
	// KeySeeded marks that the default categories were written once.
	KeySeeded = KeyCategories + ":seeded"
)

// Keys groups the keys used by a Store. A non-empty namespace is inserted
// after the prefix so several installations can share one database.
type Keys struct {
	List   string
	Set    string
	Seeded string
}

// KeysFor returns the key set for namespace.
func KeysFor(namespace string) Keys {
	if namespace == "" {
		return Keys{List: KeyCategories, Set: KeyCategorySet, Seeded: KeySeeded}
	}
	base := KeyPrefix + namespace + ":categories"
	return Keys{List: base, Set: base + ":set", Seeded: base + ":seeded"}
}
