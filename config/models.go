package config

// Config holds the configuration of the application
// Use config.LoadConfig to create a new instance
type Config struct {
	GCP          GCPConfig          `mapstructure:"gcp"`
	Embeddings   EmbeddingsConfig   `mapstructure:"embeddings"`
	FeatureStore FeatureStoreConfig `mapstructure:"feature_store"`
	Catalog      CatalogConfig      `mapstructure:"catalog"`
	Describer    DescriberConfig    `mapstructure:"describer"`
	Search       SearchConfig       `mapstructure:"search"`
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
}

// GCPConfig identifies the cloud project hosting the embedding model and
// the feature online store.
type GCPConfig struct {
	ProjectID string `mapstructure:"project_id" validate:"required"`
	Location  string `mapstructure:"location"   validate:"required"`
}

type EmbeddingsConfig struct {
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	// Endpoint overrides the regional aiplatform endpoint. Used in tests.
	Endpoint string `mapstructure:"endpoint"`
}

// FeatureStoreConfig describes the vector index and the positions of the
// feature slots that carry the product id and the image URI. Slot positions
// are a contract with the external index schema and are bound here once,
// never at call sites.
type FeatureStoreConfig struct {
	StoreID       string `mapstructure:"store_id" validate:"required"`
	ViewID        string `mapstructure:"view_id"  validate:"required"`
	ProductIDSlot int    `mapstructure:"product_id_slot"`
	URISlot       int    `mapstructure:"uri_slot"`
	// Endpoint overrides the resolved serving endpoint. Used in tests.
	Endpoint string `mapstructure:"endpoint"`
}

type CatalogConfig struct {
	Postgres   PostgresConfig `mapstructure:"postgres"`
	ImagesView string         `mapstructure:"images_view"`
	AisleTable string         `mapstructure:"aisle_table"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn" validate:"required"`
}

type DescriberConfig struct {
	// APIKey is loaded from ENV not config file.
	APIKey       string `mapstructure:"api_key" validate:"required"`
	BaseURL      string `mapstructure:"base_url"`
	Model        string `mapstructure:"model"`
	MaxImageEdge int    `mapstructure:"max_image_edge"`
}

type SearchConfig struct {
	DefaultNeighborCount int `mapstructure:"default_neighbor_count"`
	MaxNeighborCount     int `mapstructure:"max_neighbor_count"`
	// CallTimeoutSeconds bounds each external call made by the search pipeline.
	CallTimeoutSeconds int `mapstructure:"call_timeout_seconds"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}
