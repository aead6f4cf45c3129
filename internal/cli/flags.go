package cli

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile string
	User    string
	LogMode string

	// serve
	Address string

	// translate and batch
	Languages  []string
	File       string
	Style      string
	NoContext  bool
	NoIdioms   bool
	Background bool
	Topic      string

	// history
	Limit  int
	Format string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Limit:  10,
		Format: "text",
	}
}
