package web

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/liuran001/WatchParty-Go/party"
	"github.com/liuran001/WatchParty-Go/party/feedback"
)

type pageData struct {
	Health   party.HealthReport
	DotClass string
	Server   serverResponse
	Query    string
	Checked  bool
	Result   parseResponse
	Games    []party.GameView
	Notice   string
	Failed   bool
	Year     int
}

var noticeText = map[string]struct {
	text   string
	failed bool
}{
	"sent":    {text: "Thanks! Your feedback was sent."},
	"stored":  {text: "Thanks! Your feedback was saved and will be relayed later.", failed: true},
	"invalid": {text: "Please enter a message (plain text, not too long).", failed: true},
	"limited": {text: "You are sending feedback too quickly. Try again in a minute.", failed: true},
	"error":   {text: "Something went wrong. Please try again.", failed: true},
}

func dotClass(state party.HealthState) string {
	switch state {
	case party.HealthOnline:
		return "dot dot-green"
	case party.HealthUnknown, "":
		return "dot dot-grey"
	default:
		return "dot dot-red"
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Server: s.serverState(r),
		Games:  []party.GameView{},
		Year:   time.Now().Year(),
	}
	if s.status != nil {
		data.Health = s.status.Health()
		data.Games = s.status.Games()
	}
	if data.Health.State == "" {
		data.Health.State = party.HealthUnknown
		data.Health.Text = party.HealthUnknown.Text()
	}
	data.DotClass = dotClass(data.Health.State)

	if q := r.URL.Query().Get("url"); q != "" {
		data.Query = q
		data.Checked = true
		data.Result = s.parse(q)
	}
	if n, ok := noticeText[r.URL.Query().Get("feedback")]; ok {
		data.Notice = n.text
		data.Failed = n.failed
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplate.Execute(w, data); err != nil && s.logger != nil {
		s.logger.Error("render page", "error", err)
	}
}

func (s *Server) handleServerForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	var err error
	if r.PostFormValue("action") == "reset" {
		err = s.addr.Reset(r.Context())
	} else {
		err = s.addr.Set(r.Context(), r.PostFormValue("url"))
	}
	if err != nil {
		if s.logger != nil {
			s.logger.Error("update server address", "error", err)
		}
		http.Error(w, "could not save server address", http.StatusInternalServerError)
		return
	}

	s.refresh(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleFeedbackForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseForm(); err != nil || s.feedback == nil {
		http.Redirect(w, r, "/?feedback=error", http.StatusSeeOther)
		return
	}

	req := feedback.Request{
		Message: r.PostFormValue("message"),
		Contact: r.PostFormValue("contact"),
		RoomID:  r.PostFormValue("roomId"),
	}
	_, err := s.feedback.Submit(r.Context(), clientKey(r), req)

	notice := "sent"
	switch {
	case err == nil:
	case errors.Is(err, feedback.ErrRateLimited):
		notice = "limited"
	case errors.Is(err, feedback.ErrInvalid):
		notice = "invalid"
	case errors.Is(err, feedback.ErrDelivery):
		notice = "stored"
	default:
		notice = "error"
		if s.logger != nil {
			s.logger.Error("submit feedback", "error", err)
		}
	}
	http.Redirect(w, r, "/?feedback="+notice+"#feedback", http.StatusSeeOther)
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>WatchParty</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 760px; margin: 2rem auto; padding: 0 1rem; color: #1d1d1f; }
section { border: 1px solid #ddd; border-radius: 8px; padding: 1rem; margin: 1rem 0; }
.dot { display: inline-block; width: 10px; height: 10px; border-radius: 50%; margin-right: .4rem; }
.dot-green { background: #2ecc71; } .dot-red { background: #e74c3c; } .dot-grey { background: #aaa; }
.btn { display: inline-block; padding: .35rem .8rem; border: 1px solid #888; border-radius: 6px; text-decoration: none; color: inherit; background: #fff; }
.btn-primary { background: #0a66c2; border-color: #0a66c2; color: #fff; }
input[type=text], input[type=url], textarea { width: 100%; box-sizing: border-box; padding: .4rem; }
table { width: 100%; border-collapse: collapse; } td, th { text-align: left; padding: .3rem; border-bottom: 1px solid #eee; }
.notice { padding: .5rem; border-radius: 6px; background: #e8f6ee; } .notice.failed { background: #fdecea; }
code { background: #f4f4f4; padding: 0 .25rem; }
</style>
</head>
<body>
<h1>WatchParty</h1>

<section id="health">
  <span class="{{.DotClass}}"></span><span id="health-text">{{.Health.Text}}</span>
  <div>Server: <code id="wsCurrent">{{.Server.Server}}</code>{{if .Server.Custom}} (custom){{end}}</div>
</section>

<section id="check">
  <h2>Check a game link</h2>
  <form method="get" action="/">
    <input type="url" name="url" placeholder="https://www.espn.com/nfl/game/_/gameId/..." value="{{.Query}}">
    <button class="btn" type="submit">Check</button>
  </form>
  {{if .Checked}}
  <div id="result">
    {{if .Result.Supported}}
    <p>Platform: <strong>{{.Result.Platform}}</strong></p>
    <p>Room: <code>{{.Result.RoomID}}</code></p>
    <p>
      <a class="btn btn-primary" href="{{.Result.SourceURL}}" target="_blank" rel="noopener">Open game</a>
      {{if .Result.ChatURL}}<a class="btn" href="{{.Result.ChatURL}}" target="_blank" rel="noopener">Open chat</a>{{end}}
    </p>
    <p>Override: <code>{{.Result.Override}}</code></p>
    {{else}}
    <p>Platform: <strong>Not supported</strong></p>
    <p>Room: –</p>
    {{end}}
  </div>
  {{end}}
</section>

<section id="games">
  <h2>Live rooms</h2>
  {{if .Games}}
  <table>
    <tr><th>Game</th><th>Platform</th><th>Viewers</th><th></th></tr>
    {{range .Games}}
    <tr>
      <td>{{.Title}}</td>
      <td>{{.Platform}}</td>
      <td>{{.Clients}}</td>
      <td>
        {{if .WatchURL}}<a class="btn btn-primary" href="{{.WatchURL}}" target="_blank" rel="noopener">Watch</a>{{end}}
        {{if .ChatURL}}<a class="btn" href="{{.ChatURL}}" target="_blank" rel="noopener">Chat</a>{{end}}
      </td>
    </tr>
    {{end}}
  </table>
  {{else}}
  <p>No live rooms right now.</p>
  {{end}}
</section>

<section id="server">
  <h2>Server</h2>
  <form method="post" action="/server">
    <input type="text" id="wsInput" name="url" value="{{.Server.Server}}">
    <button class="btn" type="submit" name="action" value="save">Save</button>
    <button class="btn" type="submit" name="action" value="reset">Reset to default</button>
  </form>
  <p>Default: <code>{{.Server.Default}}</code></p>
</section>

<section id="feedback">
  <h2>Feedback</h2>
  {{if .Notice}}<p class="notice{{if .Failed}} failed{{end}}">{{.Notice}}</p>{{end}}
  <form method="post" action="/feedback">
    <textarea name="message" rows="4" placeholder="What happened?" required></textarea>
    <input type="text" name="contact" placeholder="Contact (optional)">
    <input type="text" name="roomId" placeholder="Room (optional)" value="{{if .Result.Supported}}{{.Result.RoomID}}{{end}}">
    <button class="btn" type="submit">Send</button>
  </form>
</section>

<footer>&copy; {{.Year}} WatchParty</footer>
</body>
</html>
`))
