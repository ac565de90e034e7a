// Package gallery はログイン済みユーザー向けの画像ページを提供します。
package gallery

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/Sydnethy/2537-Assignment1-SJ/internal/auth"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/logging"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/web"
)

// DefaultImages はギャラリーに表示する画像IDの一覧です。
var DefaultImages = []string{"dog1.gif", "dog2.gif", "dog3.gif"}

// Catalogue は表示候補の画像一覧と乱数源を保持します。
type Catalogue struct {
	images []string
	intn   func(n int) int
}

// NewCatalogue は images から一様に選ぶ Catalogue を作成します。
func NewCatalogue(images []string) *Catalogue {
	return &Catalogue{
		images: append([]string(nil), images...),
		intn:   rand.Intn,
	}
}

// Images は画像IDの一覧を返します。
func (c *Catalogue) Images() []string {
	return append([]string(nil), c.images...)
}

// Pick は画像IDを1つ一様ランダムに選びます。一覧が空なら空文字を返します。
func (c *Catalogue) Pick() string {
	if len(c.images) == 0 {
		return ""
	}
	return c.images[c.intn(len(c.images))]
}

// Problem は Verify で見つかった画像ファイルの問題です。
type Problem struct {
	Image  string
	Reason string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Image, p.Reason)
}

// Verify は各画像が dir に存在し、中身が画像であるかを確認します。
// 起動時の確認用で、問題があっても配信は止めません。
func (c *Catalogue) Verify(dir string) []Problem {
	var problems []Problem
	for _, img := range c.images {
		path := filepath.Join(dir, filepath.Base(img))
		info, err := os.Stat(path)
		if err != nil {
			problems = append(problems, Problem{Image: img, Reason: "missing"})
			continue
		}
		if info.IsDir() {
			problems = append(problems, Problem{Image: img, Reason: "is a directory"})
			continue
		}
		mt, err := mimetype.DetectFile(path)
		if err != nil {
			problems = append(problems, Problem{Image: img, Reason: err.Error()})
			continue
		}
		if !strings.HasPrefix(mt.String(), "image/") {
			problems = append(problems, Problem{Image: img, Reason: "not an image (" + mt.String() + ")"})
		}
	}
	return problems
}

// LogProblems は Verify の結果を警告として記録します。
func (c *Catalogue) LogProblems(ctx context.Context, dir string, logger logging.Logger) {
	for _, p := range c.Verify(dir) {
		logger.Warn(ctx, "gallery image problem", "dir", dir, "image", p.Image, "reason", p.Reason)
	}
}

// Handler は GET /dogs（旧 /members）のハンドラーです。auth.RequireLogin の後ろに置いてください。
func Handler(cat *Catalogue) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFromContext(c)
		if !ok {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		web.NoStore(c)
		c.HTML(http.StatusOK, web.PageGallery, gin.H{
			"Title": "Members",
			"Name":  claims.Name,
			"Image": cat.Pick(),
		})
	}
}
