package model

const (
	ProjectTypeWeb           = "Web Application"
	ProjectTypeTemplate      = "Template"
	ProjectTypePython        = "Python Application"
	ProjectTypeJava          = "Java Application"
	ProjectTypeRust          = "Rust Application"
	ProjectTypeGo            = "Go Application"
	ProjectTypeContainerized = "Containerized Application"
	ProjectTypeGeneric       = "Generic Project"
)

// ProjectSignals gathers what the classifier looks at for a repository
type ProjectSignals struct {
	IsTemplate bool
	FileNames  []string // root directory listing
	Language   string   // primary language reported by github, empty when unknown
}

// LanguageProjectType builds the "<Language> Application" label
func LanguageProjectType(language string) string {
	return language + " Application"
}
