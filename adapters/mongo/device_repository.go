package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/voyago/server/domain/entities"
	"github.com/voyago/server/domain/repositories"
)

const deviceCollection = "devices"

// DeviceRepository persists registered voice client devices in MongoDB
type DeviceRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewDeviceRepository creates a new MongoDB device repository
func NewDeviceRepository(client *Client, logger *zap.Logger) repositories.DeviceRepository {
	return &DeviceRepository{
		collection: client.Database.Collection(deviceCollection),
		logger:     logger,
	}
}

// Create registers a new device
func (r *DeviceRepository) Create(ctx context.Context, device *entities.Device) error {
	if err := device.Validate(); err != nil {
		return fmt.Errorf("invalid device: %w", err)
	}

	if device.ID == "" {
		device.ID = uuid.NewString()
	}
	if device.CreatedAt.IsZero() {
		device.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, device); err != nil {
		r.logger.Error("Failed to create device",
			zap.String("serial_number", device.SerialNumber),
			zap.Error(err))
		return fmt.Errorf("failed to create device: %w", err)
	}

	r.logger.Info("Device registered",
		zap.String("device_id", device.ID),
		zap.String("serial_number", device.SerialNumber))
	return nil
}

// GetByID retrieves a device by ID
func (r *DeviceRepository) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	var device entities.Device
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&device)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("device not found")
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &device, nil
}

// GetBySerialNumber retrieves a device by serial number
func (r *DeviceRepository) GetBySerialNumber(ctx context.Context, serialNumber string) (*entities.Device, error) {
	var device entities.Device
	err := r.collection.FindOne(ctx, bson.M{"serial_number": serialNumber}).Decode(&device)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("device not found")
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &device, nil
}

// ValidateDevice checks serial number and secret for authentication
func (r *DeviceRepository) ValidateDevice(serialNumber, secret string) (*entities.Device, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	device, err := r.GetBySerialNumber(ctx, serialNumber)
	if err != nil {
		return nil, err
	}
	if device.SecretKey != secret {
		return nil, fmt.Errorf("invalid device credentials")
	}
	return device, nil
}
