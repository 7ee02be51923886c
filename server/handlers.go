package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"provider-dashboard/chains/frequency"
	"provider-dashboard/core"
	"provider-dashboard/utils"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 16

type errorResponse struct {
	Error string `json:"error"`
}

type txResponse struct {
	TxId string `json:"txId"`
}

type txMessage struct {
	TxId   string      `json:"txId"`
	Reason core.Reason `json:"reason"`
	Status string      `json:"status"`
	Time   time.Time   `json:"time"`
}

type txHistory struct {
	TxId     string      `json:"txId"`
	Done     bool        `json:"done"`
	Messages []txMessage `json:"messages"`
}

func newTxMessage(m *core.Message) txMessage {
	return txMessage{TxId: m.Source, Reason: m.Reason, Status: m.Content, Time: m.Time}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

var errBadRequest = errors.New("bad request")

// statusOf maps backend errors onto http status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, frequency.ErrNotConnected),
		errors.Is(err, frequency.ErrNoSigner),
		errors.Is(err, frequency.ErrNotProvider),
		errors.Is(err, frequency.ErrNoMsa),
		errors.Is(err, frequency.ErrHasMsa),
		errors.Is(err, frequency.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrUnknownNetwork),
		errors.Is(err, core.ErrInvalidEndpoint),
		errors.Is(err, frequency.ErrUnknownAccount),
		errors.Is(err, frequency.ErrEmptyProviderName),
		errors.Is(err, utils.ErrInvalidAmount),
		errors.Is(err, utils.ErrInvalidAddress):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeError(w, code, frequency.UserMessage(err))
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Networks())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.State())
}

type connectRequest struct {
	Network  string `json:"network"`
	Endpoint string `json:"endpoint"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.backend.Connect(req.Network, req.Endpoint); err != nil {
		code := statusOf(err)
		if code == http.StatusInternalServerError {
			code = http.StatusBadGateway
		}
		s.log.Warn("connect failed", "network", req.Network, "err", err)
		writeError(w, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.backend.State())
}

type signerRequest struct {
	Address string `json:"address"`
}

func (s *Server) handleSigner(w http.ResponseWriter, r *http.Request) {
	var req signerRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.backend.SelectSigner(req.Address); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.backend.State())
}

type actionRequest struct {
	Action core.ActionForm `json:"action"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.backend.SetAction(req.Action)
	writeJSON(w, http.StatusOK, s.backend.State())
}

func (s *Server) handleGetMsa(w http.ResponseWriter, r *http.Request) {
	var (
		info core.MsaInfo
		err  error
	)
	if address := r.URL.Query().Get("address"); address != "" {
		info, err = s.backend.MsaInfo(address)
	} else {
		info, err = s.backend.RefreshMsaInfo()
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleCapacity(w http.ResponseWriter, r *http.Request) {
	view, err := s.backend.Capacity()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) submitted(w http.ResponseWriter, r *http.Request, txId string, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/tx/"+txId)
	writeJSON(w, http.StatusAccepted, txResponse{TxId: txId})
}

func (s *Server) handleCreateMsa(w http.ResponseWriter, r *http.Request) {
	txId, err := s.backend.CreateMsa()
	s.submitted(w, r, txId, err)
}

type providerRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateProvider(w http.ResponseWriter, r *http.Request) {
	var req providerRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	txId, err := s.backend.CreateProvider(req.Name)
	s.submitted(w, r, txId, err)
}

type addKeyRequest struct {
	Address string `json:"address"`
}

func (s *Server) handleAddControlKey(w http.ResponseWriter, r *http.Request) {
	var req addKeyRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	txId, err := s.backend.AddControlKey(req.Address)
	s.submitted(w, r, txId, err)
}

type stakeRequest struct {
	ProviderId json.Number `json:"providerId"`
	Amount     string      `json:"amount"`
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	var req stakeRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var providerId uint64
	if req.ProviderId != "" {
		id, err := strconv.ParseUint(req.ProviderId.String(), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid provider id: "+req.ProviderId.String())
			return
		}
		providerId = id
	}
	txId, err := s.backend.Stake(providerId, req.Amount)
	s.submitted(w, r, txId, err)
}

func (s *Server) handleTxHistory(w http.ResponseWriter, r *http.Request) {
	txId := chi.URLParam(r, "id")
	msgs, done, err := s.backend.Router().History(txId)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	out := txHistory{TxId: txId, Done: done, Messages: make([]txMessage, 0, len(msgs))}
	for _, m := range msgs {
		out.Messages = append(out.Messages, newTxMessage(m))
	}
	writeJSON(w, http.StatusOK, out)
}
