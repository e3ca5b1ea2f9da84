package resolution

// familyVariant is the logical identity of a font face.
type familyVariant struct {
	family  string
	variant string
}

// FamilyDirectory maps the logical identity of a font face to the locator it is served
// from. It is rebuilt wholesale with every submitted batch.
//
// FamilyDirectory is not safe for concurrent use; the Coordinator guards it with its lock.
type FamilyDirectory struct {
	locators map[familyVariant]string
}

func NewFamilyDirectory() *FamilyDirectory {
	return &FamilyDirectory{locators: make(map[familyVariant]string)}
}

// Replace discards the current mapping and installs entries. For duplicate identities the
// last entry wins. Variants are expected to be normalized already.
func (d *FamilyDirectory) Replace(entries []Entry) {
	locators := make(map[familyVariant]string, len(entries))
	for _, e := range entries {
		locators[familyVariant{family: e.Family, variant: e.Variant}] = e.Locator
	}
	d.locators = locators
}

// Lookup returns the locator configured for family and variant.
func (d *FamilyDirectory) Lookup(family, variant string) (string, bool) {
	locator, ok := d.locators[familyVariant{family: family, variant: NormalizeVariant(variant)}]
	return locator, ok
}

func (d *FamilyDirectory) Len() int {
	return len(d.locators)
}
