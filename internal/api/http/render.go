package http

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
)

var jsonContentType = []string{"application/json; charset=utf-8"}

// sonicJSON renders a value with sonic.
type sonicJSON struct {
	Data any
}

func (r sonicJSON) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	b, err := sonic.Marshal(r.Data)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (r sonicJSON) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = jsonContentType
	}
}

// envelope wraps a value as {"value": v}.
type envelope struct {
	Value any `json:"value"`
}

func respond(c *gin.Context, status int, value any) {
	c.Render(status, sonicJSON{Data: envelope{Value: value}})
}

func ok(c *gin.Context, value any) {
	respond(c, http.StatusOK, value)
}
