package verse

// ID identifies one scripture verse, e.g. "John 3:16". It is opaque to the
// client: parsing book, chapter and verse is the server's job.
type ID string

// Default is the verse shown when the page URL carries no verse.
const Default ID = "John 3:16"

func (id ID) String() string { return string(id) }
