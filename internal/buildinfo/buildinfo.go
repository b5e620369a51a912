package buildinfo

const Graffiti = "             _   _ _           \n  ___  _   _| |_| (_) ___ _ __ \n / _ \\| | | | __| | |/ _ \\ '__|\n| (_) | |_| | |_| | |  __/ |   \n \\___/ \\__,_|\\__|_|_|\\___|_|   \n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "outlier"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
