package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionHandler_GetSession(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "lucas@missao.com")

	w := api.do(http.MethodGet, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "DASHBOARD", body["view"])
	assert.Equal(t, "Minha Jornada", body["title"])
	assert.Equal(t, []interface{}{"DASHBOARD", "ENROLLMENT", "MISSION_INFO", "PAYMENT_HISTORY"}, body["menu"])
	badge := body["badge"].(map[string]interface{})
	assert.Equal(t, "Inscrição Aprovada", badge["text"])

	w = api.do(http.MethodGet, "/api/v1/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionHandler_AdminShell(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "chefe.admin@uou.com")

	w := api.do(http.MethodGet, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Logística Central", body["title"])
	assert.NotContains(t, body, "badge")

	w = api.do(http.MethodPut, "/api/v1/session/view", token, gin.H{"view": "REPORTS"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Análise de Inteligência", decode(t, w)["title"])

	w = api.do(http.MethodPut, "/api/v1/session/view", token, gin.H{"view": "ENROLLMENT"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSessionHandler_SetView(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "pedro@missao.com")

	w := api.do(http.MethodPut, "/api/v1/session/view", token, gin.H{"view": "USERS"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPut, "/api/v1/session/view", token, gin.H{"view": "ENROLLMENT"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "BRIEFING_REQUIRED", decode(t, w)["code"])

	w = api.do(http.MethodPut, "/api/v1/session/view", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPut, "/api/v1/session/view", token, gin.H{"view": "MISSION_INFO"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sobre o Chamado", decode(t, w)["title"])
}

func TestSessionHandler_BriefingProgress(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "pedro@missao.com")

	w := api.do(http.MethodPost, "/api/v1/briefing/progress", token, gin.H{"currentTime": 30, "duration": 100})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["rejected"])
	assert.Equal(t, 0.0, body["seekTo"])
	assert.Equal(t, false, body["completed"])

	w = api.do(http.MethodPost, "/api/v1/briefing/progress", token, gin.H{"currentTime": 2, "duration": 100})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["rejected"])

	w = api.do(http.MethodPost, "/api/v1/briefing/progress", token, gin.H{"currentTime": -1, "duration": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_MissionsAndPayments(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "lucas@missao.com")

	w := api.do(http.MethodGet, "/api/v1/missions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["missions"], 3)

	w = api.do(http.MethodGet, "/api/v1/payments/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 1.0, body["paidCount"])
	assert.Equal(t, 1250.0, body["revenue"])
	txs := body["transactions"].([]interface{})
	require.Len(t, txs, 1)
	assert.Equal(t, "101", txs[0].(map[string]interface{})["id"])
}
