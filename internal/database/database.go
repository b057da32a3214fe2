package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"citymap/internal/types"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	_ "github.com/sijms/go-ora/v2"
	"go.uber.org/zap"
)

// ErrInvalidIdentifier is returned for table or column names that cannot be
// spliced into SQL safely.
var ErrInvalidIdentifier = errors.New("database: invalid identifier")

// geometryAlias names the GeoJSON column appended to every layer query.
const geometryAlias = "CITYMAP_GEOJSON"

var identRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_$#]*$`)

// dsn builds a properly encoded connection string for Oracle Autonomous Database
func dsn(username, password, host, port, service string, walletLocation string) string {
	if walletLocation != "" {
		// Use wallet-based mTLS connection
		return fmt.Sprintf(
			"oracle://%s:%s@%s:%s/%s?ssl=true&wallet_location=%s",
			url.PathEscape(username), url.PathEscape(password), host, port, service, url.PathEscape(walletLocation))
	}

	return (&url.URL{
		Scheme:   "oracle",
		User:     url.UserPassword(username, password), // escapes automatically
		Host:     host + ":" + port,
		Path:     "/" + service, // keep full service name
		RawQuery: "ssl=true",    // ADB requires TCPS on 1522
	}).String()
}

// DBConfig holds database connection configuration
type DBConfig struct {
	Host           string
	Port           string
	Service        string
	Username       string
	Password       string
	WalletLocation string
}

// Configured reports whether enough settings are present to connect.
func (c DBConfig) Configured() bool {
	return c.Host != "" && c.Username != ""
}

// Database holds the database connection and configuration
type Database struct {
	db     *sql.DB
	config DBConfig
	log    *zap.Logger
}

// NewDatabase opens a connection and pings it.
func NewDatabase(ctx context.Context, config DBConfig, log *zap.Logger) (*Database, error) {
	connStr := dsn(config.Username, config.Password, config.Host, config.Port, config.Service, config.WalletLocation)

	log.Info("connecting to Oracle", zap.String("host", config.Host), zap.String("service", config.Service))

	db, err := sql.Open("oracle", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		db:     db,
		config: config,
		log:    log,
	}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// LoadLayer reads every row of an Oracle Spatial table. Attribute columns
// keep their table order; the geometry column is fetched as GeoJSON.
func (d *Database) LoadLayer(ctx context.Context, table, geomColumn string) (*types.Layer, error) {
	table, geomColumn = strings.ToUpper(table), strings.ToUpper(geomColumn)
	if !identRe.MatchString(table) || !identRe.MatchString(geomColumn) {
		return nil, fmt.Errorf("%w: %s.%s", ErrInvalidIdentifier, table, geomColumn)
	}

	columns, err := d.attributeColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	srid, err := d.srid(ctx, table, geomColumn)
	if err != nil {
		return nil, err
	}

	query, err := layerQuery(table, geomColumn, columns)
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query layer %s: %w", table, err)
	}
	defer rows.Close()

	layer := &types.Layer{Name: table, Columns: columns, CRS: crsFromSRID(srid)}
	for rows.Next() {
		values := make([]sql.NullString, len(columns)+1)
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", table, err)
		}

		attrs := make(map[string]string, len(columns))
		for i, c := range columns {
			attrs[c] = values[i].String
		}
		geom, err := parseGeometry(values[len(columns)])
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", len(layer.Features), table, err)
		}
		layer.Features = append(layer.Features, types.Feature{Geometry: geom, Attrs: attrs, Index: len(layer.Features)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read layer %s: %w", table, err)
	}

	d.log.Debug("layer read from Oracle", zap.String("table", table), zap.Int("rows", len(layer.Features)))
	return layer, nil
}

func (d *Database) attributeColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT column_name
		FROM user_tab_columns
		WHERE table_name = :1 AND data_type <> 'SDO_GEOMETRY'
		ORDER BY column_id`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func (d *Database) srid(ctx context.Context, table, geomColumn string) (int64, error) {
	var srid sql.NullInt64
	err := d.db.QueryRowContext(ctx, `
		SELECT srid
		FROM user_sdo_geom_metadata
		WHERE table_name = :1 AND column_name = :2`, table, geomColumn).Scan(&srid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil // Not registered; caller must override the CRS
		}
		return 0, fmt.Errorf("failed to query srid of %s.%s: %w", table, geomColumn, err)
	}
	return srid.Int64, nil
}

// layerQuery builds the SELECT for a layer. Identifiers are validated, so
// quoting them is enough to keep the statement well-formed.
func layerQuery(table, geomColumn string, columns []string) (string, error) {
	parts := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		if !identRe.MatchString(c) {
			return "", fmt.Errorf("%w: %s", ErrInvalidIdentifier, c)
		}
		parts = append(parts, `t."`+c+`"`)
	}
	parts = append(parts, fmt.Sprintf(`SDO_UTIL.TO_GEOJSON(t."%s") AS %s`, geomColumn, geometryAlias))
	return fmt.Sprintf(`SELECT %s FROM "%s" t`, strings.Join(parts, ", "), table), nil
}

// crsFromSRID maps an Oracle SRID to an EPSG name. Oracle's legacy 8307 is
// WGS84 lon/lat; other SRIDs are EPSG codes already.
func crsFromSRID(srid int64) string {
	switch srid {
	case 0:
		return ""
	case 8307, 8265:
		return "EPSG:4326"
	}
	return "EPSG:" + strconv.FormatInt(srid, 10)
}

func parseGeometry(v sql.NullString) (orb.MultiPolygon, error) {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil, nil
	}
	g, err := geojson.UnmarshalGeometry([]byte(v.String))
	if err != nil {
		return nil, fmt.Errorf("failed to parse geometry: %w", err)
	}
	switch g := g.Geometry().(type) {
	case orb.Polygon:
		return orb.MultiPolygon{g}, nil
	case orb.MultiPolygon:
		return g, nil
	}
	return nil, fmt.Errorf("failed to parse geometry: %s is not areal", g.Type)
}

// LoadDatabaseConfig loads database configuration from environment variables,
// reading envFile first when it exists. Variables already set win.
func LoadDatabaseConfig(envFile string) DBConfig {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	return DBConfig{
		Host:           getEnvOrDefault("DB_HOST", ""),
		Port:           getEnvOrDefault("DB_PORT", "1521"),
		Service:        getEnvOrDefault("DB_SERVICE", "XE"),
		Username:       getEnvOrDefault("DB_USERNAME", ""),
		Password:       getEnvOrDefault("DB_PASSWORD", ""),
		WalletLocation: getEnvOrDefault("DB_WALLET_LOCATION", ""),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
