package neighbors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfsight/shelfsight/config"
	"github.com/shelfsight/shelfsight/pkg/models"
)

const (
	testProductIDSlot = 8
	testURISlot       = 9
)

func testDecoder() *Decoder {
	return NewDecoder(config.FeatureStoreConfig{
		ProductIDSlot: testProductIDSlot,
		URISlot:       testURISlot,
	})
}

// testRecord builds a raw record with the id and uri values placed at the
// configured slot positions, padded with unrelated feature values.
func testRecord(idValue, uriValue string) models.NeighborRecord {
	features := make([]models.FeatureSlot, testURISlot+1)
	for i := range features {
		features[i] = models.FeatureSlot{
			Name:  fmt.Sprintf("feature_%d", i),
			Value: `string_value: "padding"`,
		}
	}
	features[testProductIDSlot] = models.FeatureSlot{Name: "productid", Value: idValue}
	features[testURISlot] = models.FeatureSlot{Name: "image_uri", Value: uriValue}
	return models.NeighborRecord{Features: features}
}

func TestDecodePreservesRankOrder(t *testing.T) {
	raw := []models.NeighborRecord{
		testRecord(`string_value: "10"`, `string_value: "gs://bucket/10.jpg"`),
		testRecord(`string_value: "20"`, `string_value: "gs://bucket/20.jpg"`),
		testRecord(`string_value: "30"`, `string_value: "gs://bucket/30.jpg"`),
	}

	decoded, err := testDecoder().Decode(raw)
	require.NoError(t, err)

	require.Len(t, decoded, 3)
	assert.Equal(t, "10", decoded[0].ProductID)
	assert.Equal(t, "20", decoded[1].ProductID)
	assert.Equal(t, "30", decoded[2].ProductID)
	assert.Equal(t, "gs://bucket/20.jpg", decoded[1].StorageURI)
}

func TestDecodeIsIdempotent(t *testing.T) {
	raw := []models.NeighborRecord{
		testRecord(`"9952.jpg"`, `"gs://raves_us/9952.jpg"`),
		testRecord(`"101"`, `"gs://raves_us/101.jpg"`),
	}

	d := testDecoder()
	first, err := d.Decode(raw)
	require.NoError(t, err)
	second, err := d.Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDecodeStripsFileExtension(t *testing.T) {
	raw := []models.NeighborRecord{
		testRecord(`string_value: "9952.jpg"`, `string_value: "gs://raves_us/9952.jpg"`),
	}

	decoded, err := testDecoder().Decode(raw)
	require.NoError(t, err)

	require.Len(t, decoded, 1)
	assert.Equal(t, "9952", decoded[0].ProductID)
	assert.Equal(t, "gs://raves_us/9952.jpg", decoded[0].StorageURI)
}

func TestDecodeShortReturn(t *testing.T) {
	// The index may return fewer neighbors than requested. Decode exactly
	// what was returned.
	raw := []models.NeighborRecord{
		testRecord(`"1"`, `"gs://bucket/1.jpg"`),
	}

	decoded, err := testDecoder().Decode(raw)
	require.NoError(t, err)
	assert.Len(t, decoded, 1)

	decoded, err = testDecoder().Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeMalformedProductID(t *testing.T) {
	raw := []models.NeighborRecord{
		testRecord(`"10"`, `"gs://bucket/10.jpg"`),
		testRecord(`string_value: "no-digits-here.jpg"`, `"gs://bucket/x.jpg"`),
	}

	decoded, err := testDecoder().Decode(raw)
	assert.Nil(t, decoded)

	var malformed *models.MalformedNeighborError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 1, malformed.Index)
	assert.Equal(t, `string_value: "no-digits-here.jpg"`, malformed.RawValue)
}

func TestDecodeMalformedURI(t *testing.T) {
	raw := []models.NeighborRecord{
		testRecord(`"10"`, `string_value: "not a uri"`),
	}

	decoded, err := testDecoder().Decode(raw)
	assert.Nil(t, decoded)

	var malformed *models.MalformedNeighborError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 0, malformed.Index)
}

func TestDecodeMissingSlot(t *testing.T) {
	// Record too short to carry the configured slots at all.
	raw := []models.NeighborRecord{
		{Features: []models.FeatureSlot{{Name: "only", Value: `"1"`}}},
	}

	_, err := testDecoder().Decode(raw)
	var malformed *models.MalformedNeighborError
	require.ErrorAs(t, err, &malformed)
}

func TestDecodeDuplicateProductID(t *testing.T) {
	raw := []models.NeighborRecord{
		testRecord(`"100"`, `"gs://bucket/100.jpg"`),
		testRecord(`string_value: "100.jpg"`, `"gs://bucket/100-dup.jpg"`),
	}

	decoded, err := testDecoder().Decode(raw)
	assert.Nil(t, decoded)

	var dup *models.DuplicateProductIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "100", dup.ProductID)
}

func TestDecoderSlotBindingFromConfig(t *testing.T) {
	// Slot positions are configuration, not constants.
	d := NewDecoder(config.FeatureStoreConfig{ProductIDSlot: 0, URISlot: 1})
	raw := []models.NeighborRecord{
		{Features: []models.FeatureSlot{
			{Name: "productid", Value: `"55"`},
			{Name: "image_uri", Value: `"gs://bucket/55.jpg"`},
		}},
	}

	decoded, err := d.Decode(raw)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "55", decoded[0].ProductID)
}
