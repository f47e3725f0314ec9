package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"
)

// DocsController serves the OpenAPI document registered by the docs package.
type DocsController struct {
	instanceName string
}

func NewDocsController(instanceName string) *DocsController {
	if instanceName == "" {
		instanceName = swag.Name
	}
	return &DocsController{instanceName: instanceName}
}

func (d *DocsController) OpenAPI(c *gin.Context) {
	doc, err := swag.ReadDoc(d.instanceName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "API documentation not available"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}
