package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/tang-isab/swimlane-chart/domain"
	"github.com/tang-isab/swimlane-chart/editor"
	"github.com/tang-isab/swimlane-chart/layout"
	"github.com/tang-isab/swimlane-chart/render"
)

const (
	maxImportSize      = 4 << 20
	postCommandMaxSize = 1 << 20
	commandScope       = "board"
	dedupeTimeout      = 5 * time.Second
)

// Server holds the dependencies of the board web app handlers.
type Server struct {
	Tracker  *Tracker
	Renderer *render.Renderer
	Deduper  Deduper
	Logger   *log.Logger
}

// Register wires the board pages and the JSON endpoints.
func Register(e *echo.Echo, s *Server) {
	if s.Logger == nil {
		s.Logger = log.StandardLogger()
	}
	e.GET("/", getIndex(s))
	e.GET("/tasks/:id", getTask(s))
	e.POST("/tasks", postTask(s))
	e.POST("/tasks/clear", postClear(s))
	e.POST("/tasks/delete", postDeleteTask(s))
	e.POST("/tasks/:id/toggle", postToggle(s))
	e.POST("/lanes", postLane(s))
	e.POST("/lanes/:id/delete", postDeleteLane(s))
	e.POST("/weeks", postWeeks(s))
	e.GET("/export", getExport(s))
	e.GET("/export.pdf", getExportPDF(s))
	e.POST("/import", postImport(s))
	e.POST("/reset", postReset(s))
	e.POST("/api/commands", postCommands(s))
	e.GET("/api/board", getBoard(s))
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
}

func (s *Server) page(c echo.Context, status int, v render.View) error {
	var buf bytes.Buffer
	if err := s.Renderer.Render(&buf, v); err != nil {
		s.Logger.WithError(err).Error("render page")
		return c.String(http.StatusInternalServerError, "failed to render page")
	}
	return c.HTMLBlob(status, buf.Bytes())
}

func home(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/")
}

func getIndex(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		_ = s.Tracker.Do(func(ed *editor.Editor) error {
			ed.OpenForCreate()
			return nil
		})
		return s.page(c, http.StatusOK, s.Tracker.View())
	}
}

func getTask(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := s.Tracker.Do(func(ed *editor.Editor) error {
			_, err := ed.OpenForEdit(c.Param("id"))
			return err
		})
		if err != nil {
			s.Tracker.Flash(render.FlashError, "Task not found")
			return s.page(c, http.StatusNotFound, s.Tracker.View())
		}
		return s.page(c, http.StatusOK, s.Tracker.View())
	}
}

func postTask(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var form editor.TaskForm
		if err := c.Bind(&form); err != nil {
			return c.String(http.StatusBadRequest, "invalid form")
		}
		editing := c.FormValue("editing")

		err := s.Tracker.Do(func(ed *editor.Editor) error {
			if editing != "" {
				if _, err := ed.OpenForEdit(editing); err != nil {
					return err
				}
			} else {
				ed.OpenForCreate()
			}
			in, err := editor.ParseTaskForm(form)
			if err != nil {
				return err
			}
			_, err = ed.Submit(in)
			return err
		})

		var verr *editor.ValidationError
		switch {
		case err == nil:
			return home(c)
		case errors.Is(err, domain.ErrTaskNotFound):
			s.Tracker.Flash(render.FlashError, "Task not found")
			return home(c)
		case errors.As(err, &verr):
			return s.formPage(c, form, verr.Fields)
		case errors.Is(err, editor.ErrSelfDependency):
			return s.formPage(c, form, map[string]string{"dependency": err.Error()})
		default:
			s.Logger.WithError(err).Error("submit task")
			return c.String(http.StatusInternalServerError, "failed to save task")
		}
	}
}

// formPage re-renders the panel with the rejected input and its errors.
func (s *Server) formPage(c echo.Context, form editor.TaskForm, fields map[string]string) error {
	v := s.Tracker.View()
	v.Form.Name = form.Name
	v.Form.Lane = form.Lane
	v.Form.Start = form.Start
	v.Form.Duration = form.Duration
	if form.Color != "" {
		v.Form.Color = form.Color
	}
	v.Form.Dependency = form.Dependency
	v.FormErrors = fields
	return s.page(c, http.StatusUnprocessableEntity, v)
}

func postClear(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		_ = s.Tracker.Do(func(ed *editor.Editor) error {
			ed.OpenForCreate()
			return nil
		})
		return home(c)
	}
}

func postDeleteTask(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		editing := c.FormValue("editing")
		if editing == "" {
			return c.String(http.StatusBadRequest, errNoTask.Error())
		}
		err := s.Tracker.Do(func(ed *editor.Editor) error {
			if _, err := ed.OpenForEdit(editing); err != nil {
				return err
			}
			return ed.DeleteBound()
		})
		if err != nil {
			s.Tracker.Flash(render.FlashError, "Task not found")
		}
		return home(c)
	}
}

func postToggle(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := s.Tracker.Do(func(ed *editor.Editor) error {
			_, err := ed.ToggleCompleted(c.Param("id"))
			return err
		})
		if err != nil {
			s.Tracker.Flash(render.FlashError, "Task not found")
		}
		return home(c)
	}
}

func postLane(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.FormValue("name")
		err := s.Tracker.Do(func(ed *editor.Editor) error {
			_, err := ed.AddLane(name)
			return err
		})
		if err != nil {
			s.Tracker.Flash(render.FlashError, "Please enter a swimlane name")
		}
		return home(c)
	}
}

func postDeleteLane(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := s.Tracker.Do(func(ed *editor.Editor) error {
			_, err := ed.DeleteLane(c.Param("id"))
			return err
		})
		if err != nil {
			s.Tracker.Flash(render.FlashError, "Swimlane not found")
		}
		return home(c)
	}
}

func postWeeks(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		n, err := strconv.Atoi(c.FormValue("weeks"))
		if err == nil {
			err = s.Tracker.Do(func(ed *editor.Editor) error { return ed.SetWeeks(n) })
		}
		if err != nil {
			s.Tracker.Flash(render.FlashError, fmt.Sprintf("Weeks must be a whole number between 1 and %d", domain.MaxWeeks))
		}
		return home(c)
	}
}

func getExport(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		name, data, err := s.Tracker.Export()
		if err != nil {
			s.Logger.WithError(err).Error("export board")
			return c.String(http.StatusInternalServerError, "failed to export project")
		}
		s.Tracker.Flash(render.FlashSuccess, MsgExported)
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
	}
}

func getExportPDF(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var buf bytes.Buffer
		name, err := s.Tracker.ExportPDF(&buf)
		if err != nil {
			s.Logger.WithError(err).Error("export pdf")
			return c.String(http.StatusInternalServerError, "failed to export pdf")
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
		return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
	}
}

func postImport(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		fh, err := c.FormFile("file")
		if err != nil {
			s.Tracker.Flash(render.FlashError, MsgImportFailed+"no file selected")
			return home(c)
		}
		f, err := fh.Open()
		if err != nil {
			s.Tracker.Flash(render.FlashError, MsgImportFailed+err.Error())
			return home(c)
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxImportSize))
		if err != nil {
			s.Tracker.Flash(render.FlashError, MsgImportFailed+err.Error())
			return home(c)
		}
		if err := s.Tracker.Import(data); err != nil {
			s.Logger.WithError(err).WithField("file", fh.Filename).Warn("import rejected")
		}
		return home(c)
	}
}

func postReset(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := s.Tracker.Reset(c.Request().Context()); err != nil {
			s.Logger.WithError(err).Error("reset board")
		}
		return home(c)
	}
}

type boardResponse struct {
	Board  *domain.Board `json:"board"`
	Layout layout.Plan   `json:"layout"`
}

func getBoard(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, plan := s.Tracker.Snapshot()
		c.Response().Header().Set("Cache-Control", "no-cache")
		return c.JSON(http.StatusOK, boardResponse{Board: b, Layout: plan})
	}
}

func postCommands(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		lr := io.LimitReader(c.Request().Body, postCommandMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()

		cmds := make([]domain.Command, 0, 4)
		if err := dec.Decode(&cmds); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		keys := make([]string, len(cmds))
		for i := range cmds {
			if cmds[i].IdempotencyKey == "" {
				cmds[i].IdempotencyKey = uuid.NewString()
			}
			cmds[i].Timestamp = nextTimestamp()
			keys[i] = cmds[i].IdempotencyKey
		}

		fresh := make([]bool, len(cmds))
		for i := range fresh {
			fresh[i] = true
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), dedupeTimeout)
		defer cancel()
		if s.Deduper != nil {
			added, err := s.Deduper.AddMany(ctx, commandScope, keys)
			if err != nil {
				for i, ok := range added {
					if ok {
						_ = s.Deduper.Remove(ctx, commandScope, keys[i])
					}
				}
				s.Logger.WithError(err).Error("dedupe commands")
				return c.String(http.StatusServiceUnavailable, "failed to record commands")
			}
			fresh = added
		}

		results := make([]CommandResult, len(cmds))
		_ = s.Tracker.Do(func(ed *editor.Editor) error {
			for i, cmd := range cmds {
				results[i] = CommandResult{IdempotencyKey: cmd.IdempotencyKey, Status: StatusApplied}
				if !fresh[i] {
					results[i].Status = StatusDuplicate
					continue
				}
				if err := applyCommand(ed, cmd); err != nil {
					results[i].Status = StatusRejected
					results[i].Error = err.Error()
				}
			}
			return nil
		})

		for i, r := range results {
			if r.Status != StatusRejected || s.Deduper == nil {
				continue
			}
			if err := s.Deduper.Remove(ctx, commandScope, keys[i]); err != nil {
				s.Logger.WithError(err).WithField("idempotencyKey", keys[i]).Warn("release rejected command key")
			}
		}
		s.Logger.WithFields(log.Fields{"commands": len(cmds)}).Debug("commands applied")
		return c.JSON(http.StatusOK, commandResponse{IdempotencyKeys: keys, Results: results})
	}
}
