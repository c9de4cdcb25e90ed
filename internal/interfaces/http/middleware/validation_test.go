package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogapp "github.com/storehub/backend/internal/application/catalog"
	"github.com/storehub/backend/internal/interfaces/http/dto"
	"github.com/storehub/backend/tests/testutil"
)

type sampleRequest struct {
	Name  string          `json:"name" binding:"required,min=2"`
	Email string          `json:"email" binding:"omitempty,email"`
	Slug  string          `json:"slug" binding:"omitempty,slug"`
	Price decimal.Decimal `json:"price" binding:"gt=0"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	r := gin.New()
	r.POST("/test", func(c *gin.Context) {
		var req sampleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.Name))
	})
	return r
}

func TestValidation_Passes(t *testing.T) {
	w := testutil.PerformRequest(t, validationRouter(), http.MethodPost, "/test",
		map[string]any{"name": "Shirt", "slug": "minha-loja", "price": "10.50"}, nil)

	testutil.AssertSuccess(t, w, http.StatusOK)
}

func TestValidation_ReportsFieldsByJSONName(t *testing.T) {
	w := testutil.PerformRequest(t, validationRouter(), http.MethodPost, "/test",
		map[string]any{"name": "", "email": "nope", "slug": "Bad Slug!", "price": "0"}, nil)

	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	errObj := testutil.JSONBody(t, w)["error"].(map[string]any)
	details, ok := errObj["details"].([]any)
	require.True(t, ok)

	messages := map[string]string{}
	for _, d := range details {
		m := d.(map[string]any)
		messages[m["field"].(string)] = m["message"].(string)
	}
	assert.Equal(t, "This field is required", messages["name"])
	assert.Equal(t, "Invalid email format", messages["email"])
	assert.Equal(t, "Must be a valid store slug", messages["slug"])
	assert.Equal(t, "Must be greater than 0", messages["price"])
}

func TestValidation_RequiredDecimal(t *testing.T) {
	SetupValidator()
	r := gin.New()
	r.POST("/products", func(c *gin.Context) {
		var req catalogapp.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.Name))
	})

	w := testutil.PerformRequest(t, r, http.MethodPost, "/products", map[string]any{"name": ""}, nil)

	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	details := testutil.JSONBody(t, w)["error"].(map[string]any)["details"].([]any)
	fields := make([]string, 0, len(details))
	for _, d := range details {
		fields = append(fields, d.(map[string]any)["field"].(string))
	}
	assert.ElementsMatch(t, []string{"name", "price"}, fields)

	w = testutil.PerformRequest(t, r, http.MethodPost, "/products", map[string]any{"name": "Shirt", "price": "19.90"}, nil)
	testutil.AssertSuccess(t, w, http.StatusOK)
}
