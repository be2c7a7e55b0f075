package api

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ivlev/beatvideo/internal/assets"
	"github.com/ivlev/beatvideo/internal/compiler"
	"github.com/ivlev/beatvideo/internal/engine"
	"github.com/ivlev/beatvideo/internal/script"
	"github.com/ivlev/beatvideo/internal/store"
	"github.com/ivlev/beatvideo/internal/video"
)

type videoAPI struct {
	opts *Options
}

func registerVideoAPI(g *echo.Group, opts *Options) {
	api := videoAPI{opts: opts}

	vg := g.Group("/videos")
	vg.POST("", api.create)
	vg.GET("", api.query)
	vg.GET("/:id", api.retrieve)
	vg.GET("/:id/download", api.download)
	vg.GET("/:id/qr", api.shareCode)

	g.POST("/scripts/validate", api.validateScript)
	g.GET("/assets", api.selectAssets)
}

type CreateVideoRequest struct {
	Script      *script.Script `json:"script" validate:"required"`
	ContentType string         `json:"contentType" validate:"required,notblank"`
	Topic       string         `json:"topic" validate:"required,notblank,max=200"`
	Paper       *Paper         `json:"paper,omitempty"`
}

type VideoMetadata struct {
	Resolution string       `json:"resolution"`
	FPS        int          `json:"fps"`
	Codec      string       `json:"codec"`
	Format     string       `json:"format"`
	Cues       []engine.Cue `json:"cues,omitempty"`
}

type CreateVideoResponse struct {
	Success        bool          `json:"success"`
	VideoID        string        `json:"videoId"`
	DownloadURL    string        `json:"downloadUrl"`
	Duration       float64       `json:"duration"`
	FrameCount     int           `json:"frameCount"`
	ProcessingTime int64         `json:"processingTime"` // ms
	Metadata       VideoMetadata `json:"metadata"`
}

// Handlers

func (api *videoAPI) create(ctx echo.Context) error {
	var data CreateVideoRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CreateVideoRequest")
	}
	if err := ctx.Validate(&data); err != nil {
		return err
	}

	req := engine.JobRequest{
		Script:      data.Script,
		ContentType: data.ContentType,
		Topic:       data.Topic,
	}
	if data.Paper != nil {
		img, err := loadPaper(data.Paper)
		if err != nil {
			return err
		}
		req.Backdrop = img
	}

	reqCtx := ctx.Request().Context()
	if api.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(reqCtx, api.opts.JobTimeout)
		defer cancel()
	}

	res, err := api.opts.Pipeline.Run(reqCtx, req)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, CreateVideoResponse{
		Success:        true,
		VideoID:        res.ID,
		DownloadURL:    res.DownloadURL,
		Duration:       res.Duration,
		FrameCount:     res.FrameCount,
		ProcessingTime: res.ProcessingTime.Milliseconds(),
		Metadata: VideoMetadata{
			Resolution: res.Metadata.Resolution,
			FPS:        res.Metadata.FPS,
			Codec:      res.Metadata.Codec,
			Format:     res.Metadata.Format,
			Cues:       res.Metadata.Cues,
		},
	})
}

func (api *videoAPI) query(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	recs, err := api.opts.Records.List(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "listing jobs")
	}
	if recs == nil {
		recs = []store.JobRecord{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *videoAPI) retrieve(ctx echo.Context) error {
	rec, err := api.opts.Records.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *videoAPI) completed(ctx echo.Context) (store.JobRecord, error) {
	rec, err := api.opts.Records.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return rec, err
	}
	if rec.Status != store.StatusCompleted || rec.OutputPath == "" {
		return rec, echo.NewHTTPError(http.StatusConflict, "video is not available")
	}
	return rec, nil
}

func (api *videoAPI) download(ctx echo.Context) error {
	rec, err := api.completed(ctx)
	if err != nil {
		return err
	}
	return ctx.Attachment(rec.OutputPath, filepath.Base(rec.OutputPath))
}

func (api *videoAPI) shareCode(ctx echo.Context) error {
	rec, err := api.completed(ctx)
	if err != nil {
		return err
	}
	size := 256
	if s, err := strconv.Atoi(ctx.QueryParam("size")); err == nil && s >= 64 && s <= 2048 {
		size = s
	}
	png, err := video.ShareCodePNG(rec.DownloadURL, size)
	if err != nil {
		return errors.Wrap(err, "encoding share code")
	}
	return ctx.Blob(http.StatusOK, "image/png", png)
}

type ValidateScriptRequest struct {
	Script      *script.Script `json:"script" validate:"required"`
	ContentType string         `json:"contentType"`
	Topic       string         `json:"topic" validate:"required,notblank,max=200"`
}

type ValidateScriptResponse struct {
	Valid       bool                     `json:"valid"`
	Duration    float64                  `json:"duration"`
	TotalFrames int                      `json:"totalFrames"`
	Scenes      []compiler.CompiledScene `json:"scenes"`
}

// validateScript normalizes and compiles without rendering.
func (api *videoAPI) validateScript(ctx echo.Context) error {
	var data ValidateScriptRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ValidateScriptRequest")
	}
	if err := ctx.Validate(&data); err != nil {
		return err
	}
	if data.ContentType == "" {
		data.ContentType = script.ContentTopicTeaser
	}

	scenes, err := api.opts.Pipeline.Compile(engine.JobRequest{
		Script:      data.Script,
		ContentType: data.ContentType,
		Topic:       data.Topic,
	})
	if err != nil {
		return err
	}

	duration := 0.0
	for _, sc := range scenes {
		duration += sc.Duration
	}
	return ctx.JSON(http.StatusOK, ValidateScriptResponse{
		Valid:       true,
		Duration:    duration,
		TotalFrames: compiler.TotalFrames(scenes),
		Scenes:      scenes,
	})
}

type assetsQuery struct {
	Topic string `query:"topic" validate:"required,notblank"`
}

func (api *videoAPI) selectAssets(ctx echo.Context) error {
	var q assetsQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to assetsQuery")
	}
	if err := ctx.Validate(&q); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, assets.Select(q.Topic))
}
