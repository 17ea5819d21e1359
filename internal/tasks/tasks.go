package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // registered for image.Decode
	"io"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sarkuru13/homestay/internal/config"
	"github.com/sarkuru13/homestay/internal/services"
	"github.com/sarkuru13/homestay/internal/storage"
)

// Task types.
const (
	TypeImageProcess = "image:process"
	TypeImageCleanup = "image:cleanup"
)

const imageQueue = "images"

// imageKeyPrefix is the prefix every accommodation image key lives under.
const imageKeyPrefix = "accommodations/"

// cleanupGracePeriod protects freshly presigned uploads that have not been
// attached to an accommodation yet from being swept as orphans.
const cleanupGracePeriod = time.Hour

// cleanupInterval is how long a completed sweep waits before re-enqueuing
// itself.
const cleanupInterval = 6 * time.Hour

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// ImageTaskPayload identifies an uploaded object to normalize and attach.
type ImageTaskPayload struct {
	S3Key           string `json:"s3_key"`
	AccommodationID string `json:"accommodation_id"`
}

// NewImageProcessTask builds the task that normalizes a freshly uploaded
// image and attaches it to an accommodation.
func NewImageProcessTask(s3Key string, accommodationID primitive.ObjectID) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageTaskPayload{S3Key: s3Key, AccommodationID: accommodationID.Hex()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	return asynq.NewTask(TypeImageProcess, payload), nil
}

// ImageCleanupPayload controls a single orphan sweep.
type ImageCleanupPayload struct {
	// Reschedule makes the sweep re-enqueue itself after completion, which
	// keeps one periodic sweep alive without a separate scheduler process.
	Reschedule bool `json:"reschedule"`
}

// NewImageCleanupTask builds an orphaned-object sweep task.
func NewImageCleanupTask(reschedule bool) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageCleanupPayload{Reschedule: reschedule})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cleanup payload: %w", err)
	}
	return asynq.NewTask(TypeImageCleanup, payload), nil
}

// EnqueueImageCleanup schedules an orphaned-object sweep.
func EnqueueImageCleanup(client *asynq.Client, reschedule bool, delay time.Duration) error {
	task, err := NewImageCleanupTask(reschedule)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.Queue("low"), asynq.MaxRetry(3)}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}
	if _, err := client.Enqueue(task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue image cleanup task: %w", err)
	}
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg                  *config.Config
	storageService       storage.IS3Storage
	accommodationService services.IAccommodationService
	s3Client             *s3.Client
	taskClient           *asynq.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	storageService storage.IS3Storage,
	accommodationService services.IAccommodationService,
	s3Client *s3.Client,
	taskClient *asynq.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:                  cfg,
		storageService:       storageService,
		accommodationService: accommodationService,
		s3Client:             s3Client,
		taskClient:           taskClient,
	}
}

// SetupServer configures an Asynq server with the handlers for the given
// worker mode. The caller runs it. Returns nil for pure API mode.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isImageWorker bool, isBgWorker bool) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
				imageQueue: 5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	if isBgWorker {
		mux.HandleFunc(TypeImageCleanup, processor.HandleImageCleanupTask)
		log.Println("Registered background task handlers.")
	}

	if isImageWorker {
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		log.Println("Registered image processing task handlers.")
	}

	if !isBgWorker && !isImageWorker {
		log.Println("Running in API mode, no task server started.")
		return nil, nil
	}

	return srv, mux
}

// --- Task Handlers ---

// HandleImageProcessTask normalizes an uploaded image: enforces size and
// dimension limits, re-encodes oversized images as JPEG, overwrites the
// stored object and attaches the key to the accommodation.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	accommodationID, err := primitive.ObjectIDFromHex(payload.AccommodationID)
	if err != nil {
		log.Printf("Invalid AccommodationID in image task payload: %s", payload.AccommodationID)
		return fmt.Errorf("invalid accommodation ID in payload: %w", asynq.SkipRetry)
	}

	log.Printf("Processing image task: S3Key=%s, AccommodationID=%s", payload.S3Key, payload.AccommodationID)

	getObjectOutput, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.AwsS3Bucket),
		Key:    aws.String(payload.S3Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Printf("S3 object %s not found, likely upload failed or key incorrect.", payload.S3Key)
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image from S3: %w", err)
	}
	defer getObjectOutput.Body.Close()

	imgData, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		return fmt.Errorf("failed to read image data for key %s: %w", payload.S3Key, err)
	}

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(imgData)) > maxSizeBytes {
		log.Printf("Image %s exceeds max size (%d > %d bytes). Deleting.", payload.S3Key, len(imgData), maxSizeBytes)
		if derr := p.storageService.DeleteObject(ctx, payload.S3Key); derr != nil {
			log.Printf("Failed to delete oversized object %s: %v", payload.S3Key, derr)
		}
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Error decoding image for key %s: %v", payload.S3Key, err)
		if derr := p.storageService.DeleteObject(ctx, payload.S3Key); derr != nil {
			log.Printf("Failed to delete undecodable object %s: %v", payload.S3Key, derr)
		}
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Printf("Decoded image %s, format: %s, size: %dx%d", payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())

	maxDim := uint(p.cfg.ImageMaxDimension)
	needsResize := uint(img.Bounds().Dx()) > maxDim || uint(img.Bounds().Dy()) > maxDim

	if needsResize {
		resizedImg := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err = jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image %s: %w", payload.S3Key, err)
		}
		log.Printf("Resized image %s to %dx%d", payload.S3Key, resizedImg.Bounds().Dx(), resizedImg.Bounds().Dy())

		_, err = p.s3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.cfg.AwsS3Bucket),
			Key:         aws.String(payload.S3Key),
			Body:        bytes.NewReader(buf.Bytes()),
			ContentType: aws.String("image/jpeg"),
		})
		if err != nil {
			return fmt.Errorf("failed to upload processed image %s: %w", payload.S3Key, err)
		}
	}

	// nil owner: the vendor was checked when the upload was presigned
	if err = p.accommodationService.AddImage(ctx, accommodationID, nil, payload.S3Key); err != nil {
		log.Printf("Error attaching image key %s to accommodation %s: %v", payload.S3Key, payload.AccommodationID, err)
		return fmt.Errorf("failed to attach processed image: %w", err)
	}

	log.Printf("Image task processed successfully: Key=%s, AccommodationID=%s", payload.S3Key, payload.AccommodationID)
	return nil
}

// HandleImageCleanupTask sweeps stored objects that no accommodation
// references. Objects younger than the grace period are skipped so an
// in-flight presigned upload is never reclaimed under the uploader.
func (p *TaskProcessor) HandleImageCleanupTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal cleanup payload: %v: %w", err, asynq.SkipRetry)
	}

	referenced, err := p.accommodationService.ReferencedImageKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to load referenced image keys: %w", err)
	}

	objects, err := p.storageService.ListObjects(ctx, imageKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to list stored images: %w", err)
	}

	cutoff := time.Now().Add(-cleanupGracePeriod)
	deleted := 0
	for _, obj := range objects {
		if referenced[obj.Key] {
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		if !strings.HasPrefix(obj.Key, imageKeyPrefix) {
			continue
		}
		if derr := p.storageService.DeleteObject(ctx, obj.Key); derr != nil {
			log.Printf("Failed to delete orphaned object %s: %v", obj.Key, derr)
			continue
		}
		deleted++
	}
	log.Printf("Image cleanup sweep done: %d stored, %d referenced, %d deleted", len(objects), len(referenced), deleted)

	if payload.Reschedule && p.taskClient != nil {
		if err := EnqueueImageCleanup(p.taskClient, true, cleanupInterval); err != nil {
			log.Printf("Failed to reschedule image cleanup: %v", err)
		}
	}
	return nil
}
