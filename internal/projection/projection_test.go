package projection

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"EPSG:4326", 4326},
		{"epsg:3857", 3857},
		{"urn:ogc:def:crs:EPSG::25832", 25832},
		{"urn:ogc:def:crs:EPSG:6.6:25832", 25832},
		{"http://www.opengis.net/def/crs/EPSG/0/32632", 32632},
		{"urn:ogc:def:crs:OGC:1.3:CRS84", 4326},
		{"2276", 2276},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			c, err := Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Code)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("")
	assert.ErrorIs(t, err, ErrMissingCRS)

	_, err = Parse("EPSG:27700")
	assert.ErrorIs(t, err, ErrUnsupportedCRS)

	_, err = Parse("not a crs")
	assert.ErrorIs(t, err, ErrUnsupportedCRS)
}

func TestFromPRJ(t *testing.T) {
	cases := []struct {
		name string
		wkt  string
		want int
	}{
		{
			name: "esri etrs89 utm",
			wkt:  `PROJCS["ETRS_1989_UTM_Zone_32N",GEOGCS["GCS_ETRS_1989",DATUM["D_ETRS_1989",SPHEROID["GRS_1980",6378137.0,298.257222101]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],UNIT["Meter",1.0]]`,
			want: 25832,
		},
		{
			name: "esri wgs84 utm south",
			wkt:  `PROJCS["WGS_1984_UTM_Zone_33S",GEOGCS["GCS_WGS_1984"]]`,
			want: 32733,
		},
		{
			name: "esri state plane",
			wkt:  `PROJCS["NAD_1983_StatePlane_Texas_North_Central_FIPS_4202_Feet",GEOGCS["GCS_North_American_1983"]]`,
			want: 2276,
		},
		{
			name: "esri web mercator",
			wkt:  `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984"]]`,
			want: 3857,
		},
		{
			name: "esri geographic",
			wkt:  `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]]]`,
			want: 4326,
		},
		{
			name: "ogc authority",
			wkt:  `PROJCS["ETRS89 / UTM zone 32N",GEOGCS["ETRS89",AUTHORITY["EPSG","4258"]],AUTHORITY["EPSG","25832"]]`,
			want: 25832,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := FromPRJ(tc.wkt)
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Code)
		})
	}

	_, err := FromPRJ(`PROJCS["British_National_Grid"]`)
	assert.ErrorIs(t, err, ErrUnsupportedCRS)
}

func TestValidateTarget(t *testing.T) {
	assert.NoError(t, ValidateTarget(WebMercator))
	assert.NoError(t, ValidateTarget(CRS{Code: 25832}))
	assert.ErrorIs(t, ValidateTarget(WGS84), ErrNotProjected)
	assert.ErrorIs(t, ValidateTarget(CRS{Code: 2276}), ErrNotProjected)
}

func TestUTM_CentralMeridianOnEquator(t *testing.T) {
	tm := newUTM(32, false)
	p := tm.fromWGS84(orb.Point{9, 0})
	assert.InDelta(t, 500000, p[0], 1e-6)
	assert.InDelta(t, 0, p[1], 1e-6)
}

func TestUTM_RoundTrip(t *testing.T) {
	tm := newUTM(32, false)
	essen := orb.Point{7.0116, 51.4556}
	xy := tm.fromWGS84(essen)
	assert.InDelta(t, 362000, xy[0], 5000)
	assert.InDelta(t, 5703000, xy[1], 5000)

	back := tm.toWGS84(xy)
	assert.InDelta(t, essen[0], back[0], 1e-7)
	assert.InDelta(t, essen[1], back[1], 1e-7)
}

func TestStatePlane_OriginAndRoundTrip(t *testing.T) {
	origin := texasNorthCentral.fromWGS84(orb.Point{-98.5, 31.66666666666667})
	assert.InDelta(t, 1968500.0, origin[0], 1e-4)
	assert.InDelta(t, 6561666.666666666, origin[1], 1e-4)

	fortWorth := orb.Point{-97.3308, 32.7555}
	back := texasNorthCentral.toWGS84(texasNorthCentral.fromWGS84(fortWorth))
	assert.InDelta(t, fortWorth[0], back[0], 1e-9)
	assert.InDelta(t, fortWorth[1], back[1], 1e-9)
}

func TestTransformer(t *testing.T) {
	proj, err := Transformer(WGS84, WebMercator)
	require.NoError(t, err)
	p := proj(orb.Point{180, 0})
	assert.InDelta(t, 20037508.34, p[0], 0.01)
	assert.InDelta(t, 0, p[1], 1e-6)

	same, err := Transformer(WebMercator, WebMercator)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{1, 2}, same(orb.Point{1, 2}))

	utmToMerc, err := Transformer(CRS{Code: 25832}, WebMercator)
	require.NoError(t, err)
	m := utmToMerc(orb.Point{500000, 0})
	assert.InDelta(t, 1001875.42, m[0], 0.5)

	_, err = Transformer(CRS{}, WebMercator)
	assert.ErrorIs(t, err, ErrMissingCRS)
}
