package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/tang-isab/swimlane-chart/domain"
	"github.com/tang-isab/swimlane-chart/storage"
)

// MaxSnapshotSize bounds a snapshot upload after decompression.
const MaxSnapshotSize = 8 << 20 // 8 MiB

const (
	dataRoute       = "/api/data"
	postDataMaxSize = MaxSnapshotSize
	notifyTimeout   = 10 * time.Second
)

// saveResponse is the body of a successful POST /api/data.
type saveResponse struct {
	Success   bool   `json:"success"`
	Timestamp string `json:"timestamp"`
}

// Server holds the dependencies of the data handlers.
type Server struct {
	Store    storage.Store
	Notifier storage.Notifier // optional
	Auth     Authenticator    // optional; nil leaves POST open
	Logger   *log.Logger
	Now      func() time.Time
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, s *Server) {
	if s.Logger == nil {
		s.Logger = log.StandardLogger()
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	e.GET(dataRoute, getData(s))
	e.POST(dataRoute, postData(s))
	e.OPTIONS(dataRoute, preflight)
	e.GET("/healthz", healthz)
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func preflight(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func getData(s *Server) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newDataRequestMetrics(c.Request().Context(), s.Logger, http.MethodGet)
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		loadStart := time.Now()
		snap, loadErr := storage.LoadOrDefault(ctx, s.Store)
		metrics.ObserveStore(time.Since(loadStart))
		if loadErr != nil {
			metrics.SetErrorStage("storage")
			s.Logger.WithError(loadErr).Error("load board")
			err = c.String(http.StatusInternalServerError, "failed to load data")
			return err
		}
		metrics.SetBoardSize(len(snap.Lanes), len(snap.Tasks))

		c.Response().Header().Set("Cache-Control", "no-cache")
		err = c.JSON(http.StatusOK, snap)
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func postData(s *Server) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newDataRequestMetrics(c.Request().Context(), s.Logger, http.MethodPost)
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		if s.Auth != nil {
			authStart := time.Now()
			sub, authErr := s.Auth.SubjectFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			metrics.ObserveAuth(time.Since(authStart))
			if authErr != nil {
				metrics.SetErrorStage("auth")
				err = c.String(http.StatusUnauthorized, authErr.Error())
				return err
			}
			metrics.SetSubject(sub)
		}

		body, readErr := io.ReadAll(io.LimitReader(c.Request().Body, postDataMaxSize+1))
		if errors.Is(readErr, errBodyTooLarge) || len(body) > postDataMaxSize {
			metrics.SetErrorStage("read_body")
			err = c.String(http.StatusRequestEntityTooLarge, "body too large")
			return err
		}
		if readErr != nil {
			metrics.SetErrorStage("read_body")
			err = c.String(http.StatusBadRequest, "invalid body")
			return err
		}
		var snap domain.Snapshot
		if decErr := sonic.Unmarshal(body, &snap); decErr != nil {
			metrics.SetErrorStage("decode_body")
			err = c.String(http.StatusBadRequest, "invalid body")
			return err
		}
		metrics.SetBoardSize(len(snap.Lanes), len(snap.Tasks))

		ts := storage.Stamp(&snap, s.Now())
		saveStart := time.Now()
		saveErr := s.Store.Save(ctx, snap)
		metrics.ObserveStore(time.Since(saveStart))
		if saveErr != nil {
			metrics.SetErrorStage("storage")
			s.Logger.WithError(saveErr).Error("save board")
			err = c.String(http.StatusInternalServerError, "failed to save data")
			return err
		}
		s.Logger.WithField("timestamp", ts).Info("project data saved")

		if s.Notifier != nil {
			notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
			if nErr := s.Notifier.BoardSaved(notifyCtx, snap); nErr != nil {
				s.Logger.WithError(nErr).Warn("publish board-saved event")
			}
			cancel()
		}

		err = c.JSON(http.StatusOK, saveResponse{Success: true, Timestamp: ts})
		return err
	}
}
