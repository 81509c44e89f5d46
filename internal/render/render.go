package render

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"siif/internal/models"
	"siif/internal/services"
	"siif/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

// FuncMap is shared by every page template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"gt": func(a, b int) bool {
			return a > b
		},
		"timeAgo":    TimeAgo,
		"formatDate": FormatDate,
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"stripHTML": utils.StripHTML,
		"excerpt":   utils.Excerpt,
		"urlquery": func(s string) string {
			return url.QueryEscape(s)
		},
		"markdown": utils.RenderMarkdown,
		// newsBody renders sanitized HTML for aggregated news and markdown for manual posts.
		"newsBody": func(n models.News) template.HTML {
			if n.Source == models.NewsSourceManual {
				return utils.RenderMarkdown(n.Content)
			}
			return utils.EnhanceHTMLContent(utils.SanitizeHTML(n.Content))
		},
		"grade": func(v *float64) string {
			if v == nil {
				return "-"
			}
			return fmt.Sprintf("%.1f", *v)
		},
		"uploadURL": func(rel string) string {
			if rel == "" {
				return ""
			}
			return services.PublicPrefix + strings.TrimPrefix(rel, "/")
		},
	}
}

// TimeAgo formats t relative to now in Portuguese.
func TimeAgo(t time.Time) string {
	return timeAgoFrom(t, time.Now())
}

func timeAgoFrom(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	seconds := int(now.Sub(t).Seconds())
	plural := func(n int, one, many string) string {
		if n == 1 {
			return fmt.Sprintf("há 1 %s", one)
		}
		return fmt.Sprintf("há %d %s", n, many)
	}
	switch {
	case seconds < 60:
		return "agora mesmo"
	case seconds < 3600:
		return plural(seconds/60, "minuto", "minutos")
	case seconds < 86400:
		return plural(seconds/3600, "hora", "horas")
	case seconds < 2592000:
		return plural(seconds/86400, "dia", "dias")
	case seconds < 31536000:
		return plural(seconds/2592000, "mês", "meses")
	}
	return plural(seconds/31536000, "ano", "anos")
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}

// LoadTemplates builds one template set per view below templates/views.
// Views are combined with the base layout, includes and components.
// Files under views/partials only get the components, for HTMX fragments.
func LoadTemplates(fsys fs.FS) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()
	funcMap := FuncMap()

	glob := func(pattern string) ([]string, error) {
		files, err := fs.Glob(fsys, pattern)
		sort.Strings(files)
		return files, err
	}
	layouts, err := glob("templates/layouts/*.html")
	if err != nil {
		return nil, err
	}
	includes, err := glob("templates/includes/*.html")
	if err != nil {
		return nil, err
	}
	components, err := glob("templates/components/*.html")
	if err != nil {
		return nil, err
	}
	shared := make([]string, 0, len(layouts)+len(includes)+len(components))
	shared = append(shared, layouts...)
	shared = append(shared, includes...)
	shared = append(shared, components...)

	const viewsDir = "templates/views"
	err = fs.WalkDir(fsys, viewsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" {
			return nil
		}
		name := strings.TrimPrefix(p, viewsDir+"/")

		root := "base.html"
		files := append(append([]string{}, shared...), p)
		if strings.HasPrefix(name, "partials/") {
			root = path.Base(p)
			files = append(append([]string{}, components...), p)
		}
		tmpl, err := template.New(root).Funcs(funcMap).ParseFS(fsys, files...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		r.Add(name, tmpl)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
