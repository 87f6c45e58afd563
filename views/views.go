// Package views renders the Code Crafters pages. Pages are html/template
// files embedded in the binary and exposed as templ components.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"

	"github.com/a-h/templ"

	"github.com/eringen/codecrafters"
	"github.com/eringen/codecrafters/submission"
)

//go:embed templates/*.html
var templateFS embed.FS

// shared holds the layout and partials every page is parsed against.
var shared = template.Must(template.New("").Funcs(funcs).ParseFS(templateFS,
	"templates/layout.html", "templates/partials.html"))

var pages = mustParsePages()

func mustParsePages() map[string]*template.Template {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}
	out := make(map[string]*template.Template)
	for _, name := range names {
		base := path.Base(name)
		if base == "layout.html" || base == "partials.html" {
			continue
		}
		t := template.Must(shared.Clone())
		out[base] = template.Must(t.ParseFS(templateFS, name))
	}
	return out
}

// page is the data every full page receives.
type page struct {
	Site    codecrafters.SiteConfig
	Meta    codecrafters.PageMeta
	Session codecrafters.Session
	Data    any
}

func render(name string, p page) templ.Component {
	t, ok := pages[name]
	if !ok {
		panic(fmt.Sprintf("views: unknown page %s", name))
	}
	return templ.FromGoHTML(t.Lookup("layout"), p)
}

// Views renders pages for one site.
type Views struct {
	Site codecrafters.SiteConfig
}

// New returns the ViewFuncs for cfg.
func New(cfg codecrafters.SiteConfig) codecrafters.ViewFuncs {
	v := &Views{Site: cfg}
	return codecrafters.ViewFuncs{
		Home:            v.Home,
		ChallengeList:   v.ChallengeList,
		ChallengeDetail: v.ChallengeDetail,
		ChallengeForm:   v.ChallengeForm,
		SolutionList:    v.SolutionList,
		Solution:        v.Solution,
		Profile:         v.Profile,
		Login:           v.Login,
		NotFound:        v.NotFound,
		ServerError:     v.ServerError,
	}
}

func (v *Views) meta(title, description string, segments ...string) codecrafters.PageMeta {
	if title == "" {
		title = v.Site.Name
	} else {
		title += " | " + v.Site.Name
	}
	if description == "" {
		description = v.Site.Description
	}
	return codecrafters.PageMeta{
		Title:       title,
		Description: description,
		URL:         codecrafters.BuildURL(v.Site.URL, segments...),
		OGType:      "website",
	}
}

func (v *Views) Home(challenges []codecrafters.Challenge, solutions []codecrafters.Solution, sess codecrafters.Session) templ.Component {
	return render("home.html", page{
		Site:    v.Site,
		Meta:    v.meta("", ""),
		Session: sess,
		Data: struct {
			Challenges []codecrafters.Challenge
			Solutions  []codecrafters.Solution
		}{challenges, solutions},
	})
}

func (v *Views) ChallengeList(challenges []codecrafters.Challenge, sess codecrafters.Session) templ.Component {
	return render("challenges.html", page{
		Site:    v.Site,
		Meta:    v.meta("Challenges", "Frontend, backend and fullstack challenges to build.", "challenges"),
		Session: sess,
		Data: struct {
			Challenges []codecrafters.Challenge
			Types      []codecrafters.ChallengeType
		}{challenges, codecrafters.ChallengeTypes},
	})
}

// ChallengeDetail renders the read-only challenge page. It is generated
// ahead of requests, so it is rendered for an anonymous viewer.
func (v *Views) ChallengeDetail(ch codecrafters.Challenge, author *codecrafters.User, meta codecrafters.PageMeta) templ.Component {
	return render("challenge.html", page{
		Site: v.Site,
		Meta: meta,
		Data: struct {
			Challenge codecrafters.Challenge
			Author    *codecrafters.User
		}{ch, author},
	})
}

func (v *Views) ChallengeForm(form codecrafters.FormView) templ.Component {
	return render("challenge_form.html", page{
		Site:    v.Site,
		Meta:    v.meta("New challenge", "", "challenges", "new"),
		Session: form.Session,
		Data: struct {
			Form         codecrafters.FormView
			VideoMaxSize int64
		}{form, submission.VideoMaxSize},
	})
}

func (v *Views) SolutionList(solutions []codecrafters.Solution, sess codecrafters.Session) templ.Component {
	return render("solutions.html", page{
		Site:    v.Site,
		Meta:    v.meta("Solutions", "Solutions shared by the community.", "solutions"),
		Session: sess,
		Data:    solutions,
	})
}

func (v *Views) Solution(s codecrafters.Solution, sess codecrafters.Session) templ.Component {
	return render("solution.html", page{
		Site:    v.Site,
		Meta:    v.meta(s.Title, s.Description, "solutions", s.ID),
		Session: sess,
		Data:    s,
	})
}

func (v *Views) Profile(u codecrafters.User, solutions []codecrafters.Solution, sess codecrafters.Session) templ.Component {
	return render("profile.html", page{
		Site:    v.Site,
		Meta:    v.meta(u.Name+" (@"+u.Username+")", "", "profile", u.Username),
		Session: sess,
		Data: struct {
			User      codecrafters.User
			Solutions []codecrafters.Solution
		}{u, solutions},
	})
}

func (v *Views) Login(showError bool, csrfToken string) templ.Component {
	return render("login.html", page{
		Site:    v.Site,
		Meta:    v.meta("Log in", "", "login"),
		Session: codecrafters.Session{CSRFToken: csrfToken},
		Data:    showError,
	})
}

func (v *Views) NotFound(message string) templ.Component {
	return render("notfound.html", page{
		Site: v.Site,
		Meta: v.meta("Not found", ""),
		Data: message,
	})
}

func (v *Views) ServerError() templ.Component {
	return render("servererror.html", page{
		Site: v.Site,
		Meta: v.meta("Something went wrong", ""),
	})
}

// SolutionCard renders one solution as a card: age, title, challenge link,
// tags, challenge type, author and description. It only reads s.
func SolutionCard(s codecrafters.Solution) templ.Component {
	return templ.FromGoHTML(shared.Lookup("solution-card"), s)
}
