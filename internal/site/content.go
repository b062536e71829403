package site

// Section is one anchor on the page.
type Section struct {
	ID    string
	Title string
}

// Sections in page order. The IDs double as navigation anchors and reveal
// keys.
var Sections = []Section{
	{ID: "top", Title: "Home"},
	{ID: "about", Title: "About"},
	{ID: "skills", Title: "Skills"},
	{ID: "services", Title: "Services"},
	{ID: "work", Title: "Work"},
	{ID: "contact", Title: "Contact"},
}

// IsSection reports whether id names a page section.
func IsSection(id string) bool {
	for _, s := range Sections {
		if s.ID == id {
			return true
		}
	}
	return false
}

type Skill struct {
	Name  string
	Level int // percent
}

type SkillCategory struct {
	Name   string
	Skills []Skill
}

type Service struct {
	Title       string
	Description string
}

type Project struct {
	Title       string
	Description string
	Stack       string
	URL         string
}

type Link struct {
	Label string
	Href  string
}

// Content is everything the static sections render.
type Content struct {
	Owner      string
	Role       string
	Headline   string
	Location   string
	AboutMe    string
	Highlights []string
	Skills     []SkillCategory
	SoftSkills []string
	Services   []Service
	Projects   []Project
	Email      string
	Links      []Link
	ResumePath string
}

var (
	AboutMe = `I love building software that's both useful and fun, and I'm always curious about how things work behind the scenes.
	Most of my projects start with a simple idea and turn into a chance to learn something new, whether it's exploring a
	different language, experimenting with tools, or solving tricky problems.
	When I'm not coding, you'll usually find me training Muay Thai, shooting pool with friends,
	or chasing down a new challenge outside the screen.`

	ProjectOne = `A terminal-based email client built in Go with fuzzyfinder capabilities
	using the Charmbracelet TUI framework and go-imap.`

	ProjectTwo = `A terminal-based music streaming application built in Go with an elegant TUI
	interface, leveraging yt-dlp and mpv for seamless YouTube Music playback directly from the command line.`

	ProjectThree = `A machine learning-powered web application that uses TF-IDF vectorization and cosine
	similarity to recommend games based on content analysis, featuring interactive data visualizations and
	real-time filtering by user reviews and ratings.`

	ProjectFour = `A responsive portfolio site served by Go and gin, with HTMX fragments for the
	contact form and navigation, a relayed contact form behind hCaptcha, and privacy-conscious analytics in sqlite.`
)

// DefaultContent returns the site copy.
func DefaultContent() Content {
	return Content{
		Owner:    "Zach Kordas-Potter",
		Role:     "Software Developer",
		Headline: "Building useful, fast and well-tested software.",
		Location: "Remote",
		AboutMe:  AboutMe,
		Highlights: []string{
			"Bachelor of Computer Science, Western Governors University",
			"Certified in agile project management methodology",
			"Go services, terminal tools and web applications",
		},
		Skills: []SkillCategory{
			{Name: "Backend", Skills: []Skill{{"Go", 85}, {"SQL", 75}, {"REST APIs", 80}}},
			{Name: "Frontend", Skills: []Skill{{"HTML & CSS", 80}, {"HTMX", 70}, {"JavaScript", 65}}},
			{Name: "Tooling", Skills: []Skill{{"Git", 80}, {"Linux", 75}, {"Docker", 60}}},
		},
		SoftSkills: []string{
			"Analytical Thinking",
			"Team Collaboration",
			"Problem Solving",
			"Adaptability",
			"Communication",
			"Time Management",
		},
		Services: []Service{
			{
				Title:       "Web Development",
				Description: "Responsive, fast web applications with server-rendered pages and small, focused interactivity.",
			},
			{
				Title:       "Backend Services",
				Description: "Go services and APIs with clear contracts, tests and sensible operational defaults.",
			},
			{
				Title:       "Command Line Tools",
				Description: "Terminal applications and automation that make repetitive work disappear.",
			},
		},
		Projects: []Project{
			{Title: "Mail TUI", Description: ProjectOne, Stack: "Go, Bubble Tea, go-imap"},
			{Title: "Music TUI", Description: ProjectTwo, Stack: "Go, yt-dlp, mpv"},
			{Title: "Game Recommender", Description: ProjectThree, Stack: "Python, scikit-learn"},
			{Title: "Portfolio", Description: ProjectFour, Stack: "Go, gin, HTMX, sqlite"},
		},
		Email: "zachkordaspotter@gmail.com",
		Links: []Link{
			{Label: "GitHub", Href: "https://github.com/Zachkp"},
		},
		ResumePath: "/static/resume.pdf",
	}
}
