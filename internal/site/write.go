package site

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Write renders the board into dir: the data file, the map layer and the
// page itself.
func Write(dir string, d Data) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "site: create %s", dir)
	}

	data, err := json.Marshal(d)
	if err != nil {
		return eris.Wrap(err, "site: marshal data")
	}
	if err := writeFile(filepath.Join(dir, DataFile), data); err != nil {
		return err
	}

	layer, err := json.Marshal(FeatureCollection(d.Companies))
	if err != nil {
		return eris.Wrap(err, "site: marshal geojson")
	}
	if err := writeFile(filepath.Join(dir, GeoJSONFile), layer); err != nil {
		return err
	}

	var page bytes.Buffer
	if err := RenderIndex(&page, d); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, IndexFile), page.Bytes()); err != nil {
		return err
	}

	zap.L().Info("site written",
		zap.String("dir", dir),
		zap.Int("companies", len(d.Companies)),
		zap.Int("roles", len(d.Roles)),
		zap.Int("page_bytes", page.Len()),
	)
	return nil
}

// ReadData loads the data file written by Write.
func ReadData(dir string) (Data, error) {
	path := filepath.Join(dir, DataFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, eris.Wrapf(err, "site: read %s", path)
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return Data{}, eris.Wrapf(err, "site: parse %s", path)
	}
	return d, nil
}

func writeFile(path string, data []byte) error {
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "site: write %s", path)
}
