package web

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/chengna/nksearch/internal/engine"
	"github.com/chengna/nksearch/internal/query"
	"github.com/chengna/nksearch/internal/querylog"
)

//go:embed templates/*.html
var templateFS embed.FS

// logTail is how many query-log lines the log view shows.
const logTail = 20

// Server is the portal's HTTP surface: a sidebar of query modes over the
// query service. Engine failures degrade to a zero-result page with a
// diagnostic banner; no handler surfaces a raw error.
type Server struct {
	Query    *query.Service
	QueryLog *querylog.Logger

	templates map[string]*template.Template
}

// viewData is passed to every page template.
type viewData struct {
	Mode     string
	Notice   string
	Error    string
	Searched bool

	// form echoes
	Site     string
	Keyword  string
	Input    string
	URL      string
	Username string

	Results  engine.Results
	Snapshot query.Snapshot
	Logs     []string
}

// funcs are the template helpers: "highlight" re-enables only the engine's
// bold tags after escaping, "snippet" trims long content previews.
var funcs = template.FuncMap{
	"highlight": func(fragment string) template.HTML {
		escaped := template.HTMLEscapeString(fragment)
		escaped = strings.ReplaceAll(escaped, "&lt;b&gt;", "<b>")
		escaped = strings.ReplaceAll(escaped, "&lt;/b&gt;", "</b>")
		escaped = strings.ReplaceAll(escaped, "&lt;em&gt;", "<em>")
		escaped = strings.ReplaceAll(escaped, "&lt;/em&gt;", "</em>")
		return template.HTML(escaped)
	},
	"snippet": func(s string) string {
		runes := []rune(s)
		if len(runes) <= 200 {
			return s
		}
		return string(runes[:200]) + "…"
	},
}

// Handler builds the portal mux.
func (s *Server) Handler() http.Handler {
	s.templates = make(map[string]*template.Template)
	for _, page := range []string{"home", "site", "doc", "phrase", "wildcard", "logs", "snapshot", "login"} {
		s.templates[page] = template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+page+".html"))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/site", s.handleSite)
	mux.HandleFunc("/doc", s.handleDoc)
	mux.HandleFunc("/phrase", s.handlePhrase)
	mux.HandleFunc("/wildcard", s.handleWildcard)
	mux.HandleFunc("/logs", s.handleLogs)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/signup", s.handleSignup)
	return mux
}

func (s *Server) render(w http.ResponseWriter, page string, data viewData) {
	data.Mode = page
	if err := s.templates[page].ExecuteTemplate(w, "layout", data); err != nil {
		log.Error().Err(err).Str("page", page).Msg("render failed")
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, "home", viewData{})
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	data := viewData{}
	if r.Method == http.MethodPost {
		data.Site = strings.TrimSpace(r.FormValue("webtext"))
		data.Keyword = strings.TrimSpace(r.FormValue("keytext"))
		data.Searched = true

		res, err := s.Query.Site(r.Context(), data.Site, data.Keyword)
		if err != nil {
			log.Error().Err(err).Msg("site query failed")
			data.Error = "查询出错，请稍后重试"
		}
		data.Results = res
		s.QueryLog.Record("站内查询", map[string]string{"webtext": data.Site, "keytext": data.Keyword})
	}
	s.render(w, "site", data)
}

func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	data := viewData{}
	if r.Method == http.MethodPost {
		data.Input = strings.TrimSpace(r.FormValue("itext"))
		data.Searched = true

		res, err := s.Query.Document(r.Context(), data.Input)
		if err != nil {
			log.Error().Err(err).Msg("document query failed")
			data.Error = "查询出错，请稍后重试"
		}
		data.Results = res
		s.QueryLog.Record("文档查询", map[string]string{"itext": data.Input})
	}
	s.render(w, "doc", data)
}

func (s *Server) handlePhrase(w http.ResponseWriter, r *http.Request) {
	data := viewData{}
	if r.Method == http.MethodPost {
		data.Input = strings.TrimSpace(r.FormValue("keytext"))
		data.Searched = true

		res, err := s.Query.Phrase(r.Context(), []string{data.Input}, query.PhraseOptions{})
		if err != nil {
			log.Error().Err(err).Msg("phrase query failed")
			data.Error = "查询出错，请稍后重试"
		}
		data.Results = res
		s.QueryLog.Record("短语查询", map[string]string{"keytext": data.Input})
	}
	s.render(w, "phrase", data)
}

func (s *Server) handleWildcard(w http.ResponseWriter, r *http.Request) {
	data := viewData{}
	if r.Method == http.MethodPost {
		data.Input = strings.TrimSpace(r.FormValue("keytext"))
		data.Searched = true

		if strings.HasPrefix(data.Input, "*") || strings.HasPrefix(data.Input, "?") {
			data.Notice = "前导通配符可能导致查询性能下降，请尽量避免使用"
		}
		res, err := s.Query.Wildcard(r.Context(), data.Input)
		if err != nil {
			log.Error().Err(err).Msg("wildcard query failed")
			data.Error = "查询出错，请稍后重试"
		}
		data.Results = res
		s.QueryLog.Record("通配查询", map[string]string{"keytext": data.Input})
	}
	s.render(w, "wildcard", data)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	data := viewData{}
	lines, err := s.QueryLog.Tail(logTail)
	if err != nil {
		log.Error().Err(err).Msg("read query log failed")
		data.Error = "读取日志时出错"
	}
	data.Logs = lines
	s.render(w, "logs", data)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data := viewData{}
	if r.Method == http.MethodPost {
		data.URL = strings.TrimSpace(r.FormValue("url"))
		data.Searched = true

		snap, err := s.Query.WebSnapshot(r.Context(), data.URL)
		if err != nil {
			log.Error().Err(err).Msg("snapshot query failed")
			data.Error = "查询出错，请稍后重试"
		}
		data.Snapshot = snap
		s.QueryLog.Record("网页快照", map[string]string{"url": data.URL})
	}
	s.render(w, "snapshot", data)
}

// handleLogin always succeeds; there is no account store behind it.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	data := viewData{}
	if r.Method == http.MethodPost {
		data.Username = strings.TrimSpace(r.FormValue("name"))
		data.Notice = "登录成功！"
	}
	s.render(w, "login", data)
}

// handleSignup acknowledges the form and stores nothing.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	data := viewData{}
	if r.Method == http.MethodPost {
		data.Username = strings.TrimSpace(r.FormValue("name"))
		data.Notice = "注册成功！"
	}
	s.render(w, "login", data)
}
