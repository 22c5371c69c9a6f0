package synthetic

// Default generation parameters.
const (
	DefaultSwimmers  = 200
	DefaultRecruits  = 12
	DefaultFirstYear = 2015
	DefaultSeasons   = 7
	DefaultSeed      = 1
)

// Config holds generation parameters.
type Config struct {
	Swimmers  int      // Population size
	Recruits  int      // Roster size, drawn from the youngest swimmers
	Events    []string // Events swum by everyone
	FirstYear int      // Year of the first meet file
	Seasons   int      // Number of yearly meet files
	Seed      int64    // Faker seed; equal seeds give equal output
}

// DefaultConfig returns the parameters used by gen-results without flags.
func DefaultConfig() Config {
	return Config{
		Swimmers:  DefaultSwimmers,
		Recruits:  DefaultRecruits,
		Events:    []string{"50 FR SCY", "100 FR SCY", "100 FL SCY"},
		FirstYear: DefaultFirstYear,
		Seasons:   DefaultSeasons,
		Seed:      DefaultSeed,
	}
}

// Stats counts what Write produced.
type Stats struct {
	Files    int
	Rows     int
	Swimmers int
	Recruits int
}
