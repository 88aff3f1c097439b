package info

var (
	// Version of the service
	Version = "<todo>"
	// Commit in git in short format
	Commit = "<todo>"
	// GoVersion info on build moment
	GoVersion = "<todo>"
	// BuildDate is date and time in format +%Y-%m-%d_%H:%M:%S
	BuildDate = "<todo>"
)

type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go-version"`
	BuildDate string `json:"build-date"`
}

// New returns build info of the named binary. The variables above are set
// with -ldflags "-X".
func New(name string) *Info {
	return &Info{
		Name:      name,
		Version:   Version,
		Commit:    Commit,
		GoVersion: GoVersion,
		BuildDate: BuildDate,
	}
}
