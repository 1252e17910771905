package handler

import (
	"net/http"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/pkg/avurl"
	"github.com/edirooss/gasket-console/pkg/jsonx"
	"github.com/gin-gonic/gin"
)

type parseURLReq struct {
	URL  string `json:"url"`
	Role string `json:"role"` // input | output; empty skips the role check
}

// ParseURL handles POST /api/url/parse. The edit forms use it to split and
// check a media URL before staging it.
//
//	200 OK                   → split URL
//	400 Bad Request          → malformed body or unknown role
//	422 Unprocessable Entity → URL not usable for the role
func (h *ConsoleHandler) ParseURL(c *gin.Context) {
	var req parseURLReq
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		badRequest(c, err)
		return
	}

	var check func(string) error
	switch req.Role {
	case "":
	case "input":
		check = resource.ValidateInputURI
	case "output":
		check = resource.ValidateOutputURI
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "role must be input or output"})
		return
	}

	u, err := avurl.Parse(req.URL)
	if err == nil && check != nil {
		err = check(req.URL)
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}
