package types

// LogCategory identifies one of the append-only log files of a run.
type LogCategory string

const (
	LogInstaller LogCategory = "installer"
	LogError     LogCategory = "error"
	LogConfig    LogCategory = "config"
	LogBuild     LogCategory = "build"
	LogInstall   LogCategory = "install"
	LogExtract   LogCategory = "extract"
)

// LogCategories lists every log file created at run start.
var LogCategories = []LogCategory{
	LogInstaller,
	LogError,
	LogConfig,
	LogBuild,
	LogInstall,
	LogExtract,
}

// categoryOwners maps a category to the stage that writes it. installer and
// error are shared by every stage.
var categoryOwners = map[LogCategory]StageID{
	LogExtract: StageExtract,
	LogConfig:  StageConfigure,
	LogBuild:   StageCompile,
	LogInstall: StageInstall,
}

// Owner returns the stage whose output the category holds.
func (c LogCategory) Owner() (StageID, bool) {
	id, ok := categoryOwners[c]
	return id, ok
}

// FileName returns the file name of the category, e.g. "build.log".
func (c LogCategory) FileName() string {
	return string(c) + ".log"
}
