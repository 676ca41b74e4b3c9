// Package synonyms expands skill tokens into the set of names the same skill
// is commonly listed under.
package synonyms

import (
	"slices"
	"strings"
)

// table maps a canonical skill to its aliases. Keys and values are lower-cased.
var table = map[string][]string{
	// languages and runtimes
	"javascript": {"js", "ecmascript", "es6", "es2015"},
	"typescript": {"ts"},
	"python":     {"py", "python3"},
	"golang":     {"go"},
	"c#":         {"csharp", "c sharp", ".net", "dotnet"},
	"c++":        {"cpp", "cplusplus"},
	"ruby":       {"rb", "ruby on rails", "rails", "ror"},
	"java":       {"jvm", "j2ee", "java ee", "spring", "spring boot"},
	"kotlin":     {"kt"},
	"php":        {"laravel", "symfony"},

	// frontend
	"react":    {"reactjs", "react.js"},
	"vue":      {"vuejs", "vue.js"},
	"angular":  {"angularjs", "angular.js"},
	"next.js":  {"nextjs", "next"},
	"html":     {"html5"},
	"css":      {"css3", "scss", "sass", "less"},
	"tailwind": {"tailwindcss", "tailwind css"},
	"webpack":  {"vite", "bundler"},
	"redux":    {"redux toolkit", "rtk"},

	// backend
	"node.js":       {"node", "nodejs", "node js"},
	"express":       {"expressjs", "express.js"},
	"django":        {"django rest framework", "drf"},
	"flask":         {"fastapi"},
	"graphql":       {"gql", "apollo"},
	"api":           {"rest", "restful", "rest api", "web services"},
	"sql":           {"mysql", "postgresql", "postgres", "sqlite", "mssql"},
	"mongodb":       {"mongo", "mongoose", "nosql"},
	"redis":         {"cache", "caching"},
	"kafka":         {"apache kafka", "message queue", "rabbitmq"},
	"microservices": {"microservice", "service oriented architecture", "soa"},

	// cloud and infrastructure
	"aws":        {"amazon web services", "ec2", "s3", "lambda"},
	"gcp":        {"google cloud", "google cloud platform"},
	"azure":      {"microsoft azure"},
	"docker":     {"containers", "containerization"},
	"kubernetes": {"k8s", "eks", "gke", "aks"},
	"terraform":  {"iac", "infrastructure as code"},
	"ci/cd":      {"cicd", "continuous integration", "continuous delivery", "jenkins", "github actions"},
	"linux":      {"unix", "bash", "shell"},

	// mobile
	"react native": {"react-native", "rn"},
	"ios":          {"swift", "objective-c", "swiftui"},
	"android":      {"android sdk", "jetpack compose"},
	"flutter":      {"dart"},

	// data science
	"machine learning": {"ml", "deep learning", "ai", "artificial intelligence"},
	"data science":     {"data analysis", "data analytics", "analytics"},
	"pandas":           {"numpy", "scipy"},
	"tensorflow":       {"keras", "pytorch"},
	"nlp":              {"natural language processing"},

	// generic
	"git":     {"github", "gitlab", "version control", "bitbucket"},
	"agile":   {"scrum", "kanban", "jira"},
	"testing": {"unit testing", "tdd", "jest", "qa"},
	"ui/ux":   {"ui", "ux", "user experience", "user interface", "figma"},
}

// classes maps every known term to its one-hop equivalence class.
var classes = buildClasses(table)

func buildClasses(t map[string][]string) map[string][]string {
	sets := make(map[string]map[string]struct{})
	add := func(term string, members ...string) {
		set, ok := sets[term]
		if !ok {
			set = make(map[string]struct{})
			sets[term] = set
		}
		for _, m := range members {
			set[m] = struct{}{}
		}
	}

	for canonical, aliases := range t {
		add(canonical, canonical)
		add(canonical, aliases...)
		for _, alias := range aliases {
			add(alias, alias, canonical)
			add(alias, aliases...)
		}
	}

	out := make(map[string][]string, len(sets))
	for term, set := range sets {
		members := make([]string, 0, len(set))
		for m := range set {
			members = append(members, m)
		}
		slices.Sort(members)
		out[term] = members
	}
	return out
}

// Normalize lower-cases and trims a skill token.
func Normalize(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

// Expand returns the normalized skill together with every registered synonym.
// A canonical skill expands to its aliases; an alias expands to its canonical
// skill and that skill's other aliases. Unknown skills expand to themselves.
func Expand(skill string) []string {
	skill = Normalize(skill)
	if skill == "" {
		return nil
	}

	if class, ok := classes[skill]; ok {
		return slices.Clone(class)
	}
	return []string{skill}
}

// ExpandAll returns the union of Expand over skills as a set.
func ExpandAll(skills []string) map[string]struct{} {
	out := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		for _, term := range Expand(skill) {
			out[term] = struct{}{}
		}
	}
	return out
}
