package controller

import (
	"context"
	"encoding/json"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/service"
	"ai-tutor-be/pkg/rag/state"
)

type ITutorController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	AskAsync(ctx *fiber.Ctx) error
	GetJob(ctx *fiber.Ctx) error
	GetThreadMessages(ctx *fiber.Ctx) error
	AskStream(ctx *fiber.Ctx) error
}

type tutorController struct {
	tutorService service.ITutorService
}

func NewTutorController(tutorService service.ITutorService) ITutorController {
	return &tutorController{
		tutorService: tutorService,
	}
}

func (c *tutorController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/tutor/v1")

	// The websocket handshake carries its own token; everything else goes
	// through the standard middleware.
	h.Get("ask/stream", c.AskStream)

	h.Use(serverutils.JwtMiddleware)
	h.Post("ask", c.Ask)
	h.Post("ask/async", c.AskAsync)
	h.Get("jobs/:id", c.GetJob)
	h.Get("threads/:id/messages", c.GetThreadMessages)
}

func (c *tutorController) Ask(ctx *fiber.Ctx) error {
	studentId, ok := ctx.Locals("student_id").(string)
	if !ok || studentId == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Token missing student_id")
	}

	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.tutorService.Ask(ctx.Context(), studentId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}

func (c *tutorController) AskAsync(ctx *fiber.Ctx) error {
	studentId, ok := ctx.Locals("student_id").(string)
	if !ok || studentId == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Token missing student_id")
	}

	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.tutorService.AskAsync(ctx.Context(), studentId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Question queued", res))
}

func (c *tutorController) GetJob(ctx *fiber.Ctx) error {
	studentId, ok := ctx.Locals("student_id").(string)
	if !ok || studentId == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Token missing student_id")
	}

	res, err := c.tutorService.GetJob(ctx.Context(), studentId, ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show job", res))
}

func (c *tutorController) GetThreadMessages(ctx *fiber.Ctx) error {
	studentId, ok := ctx.Locals("student_id").(string)
	if !ok || studentId == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Token missing student_id")
	}

	threadId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid thread id")
	}

	res, err := c.tutorService.GetThreadMessages(ctx.Context(), studentId, threadId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show thread messages", res))
}

// streamRequest is the first frame the client sends after the upgrade.
type streamRequest struct {
	Question string                 `json:"question"`
	ThreadId *uuid.UUID             `json:"thread_id,omitempty"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

// AskStream upgrades to a websocket and emits one JSON snapshot per
// pipeline stage, then the final answer.
func (c *tutorController) AskStream(ctx *fiber.Ctx) error {
	// Token via query param (browser standard) or Authorization header
	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	studentId, ok := claims["student_id"].(string)
	if !ok || studentId == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing student_id"})
	}

	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		defer conn.Close()

		var req streamRequest
		if err := conn.ReadJSON(&req); err != nil {
			writeStreamError(conn, "Invalid request frame")
			return
		}
		if req.Question == "" {
			writeStreamError(conn, "Question is required")
			return
		}

		askReq := &dto.AskRequest{
			Question: req.Question,
			ThreadId: req.ThreadId,
			Context:  req.Context,
		}

		emit := func(snapshot state.Snapshot) {
			// A broken connection aborts the stream but not the pipeline.
			_ = conn.WriteJSON(snapshot)
		}

		// The fiber request context dies with the handshake; the pipeline
		// runs on its own context, cancelled when the client walks away.
		pipelineCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					cancel()
					return
				}
			}
		}()

		res, err := c.tutorService.AskStream(pipelineCtx, studentId, askReq, emit)
		if err != nil {
			writeStreamError(conn, err.Error())
			return
		}

		_ = conn.WriteJSON(fiber.Map{
			"stage":  "COMPLETE",
			"result": res,
		})
	})(ctx)
}

func writeStreamError(conn *websocket.Conn, message string) {
	payload, _ := json.Marshal(fiber.Map{"stage": "ERROR", "error": message})
	_ = conn.WriteMessage(websocket.TextMessage, payload)
}
