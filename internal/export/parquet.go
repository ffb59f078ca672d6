package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/kmorrow/bikeweather/pkg/models"
)

// tripParquetRow is the Parquet schema for the sampled trip table. It
// carries the same column set as the full trip table; timestamps are
// epoch milliseconds.
type tripParquetRow struct {
	RideID           string  `parquet:"name=ride_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	StartedAt        int64   `parquet:"name=started_at,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	EndedAt          int64   `parquet:"name=ended_at,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	StartStationID   string  `parquet:"name=start_station_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	StartStationName string  `parquet:"name=start_station_name,type=BYTE_ARRAY,convertedtype=UTF8"`
	StartLat         float64 `parquet:"name=start_lat,type=DOUBLE"`
	StartLng         float64 `parquet:"name=start_lng,type=DOUBLE"`
	EndStationID     string  `parquet:"name=end_station_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	EndStationName   string  `parquet:"name=end_station_name,type=BYTE_ARRAY,convertedtype=UTF8"`
	EndLat           float64 `parquet:"name=end_lat,type=DOUBLE"`
	EndLng           float64 `parquet:"name=end_lng,type=DOUBLE"`
	UserType         string  `parquet:"name=user_type,type=BYTE_ARRAY,convertedtype=UTF8"`
	DurationSec      float64 `parquet:"name=duration_sec,type=DOUBLE"`
}

// WriteTripsParquet writes the sampled trip subset as a SNAPPY-compressed
// Parquet file, the format the dashboard reads its sample from.
func WriteTripsParquet(path string, trips []models.Trip) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	pw, err := writer.NewParquetWriterFromWriter(f, new(tripParquetRow), 4)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, t := range trips {
		row := tripParquetRow{
			RideID:           t.RideID,
			StartedAt:        t.StartTime.UnixMilli(),
			EndedAt:          t.EndTime.UnixMilli(),
			StartStationID:   t.StartStationID,
			StartStationName: t.StartStationName,
			StartLat:         t.StartLat,
			StartLng:         t.StartLng,
			EndStationID:     t.EndStationID,
			EndStationName:   t.EndStationName,
			EndLat:           t.EndLat,
			EndLng:           t.EndLng,
			UserType:         t.UserType,
			DurationSec:      t.Duration().Seconds(),
		}
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("writing parquet row %s: %w", t.RideID, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalizing parquet file: %w", err)
	}

	return nil
}
