package champions

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/draftwatch/agent/internal/model"
)

// cdnVersionsPath and cdnChampionDataFormat mirror the vendor Data Dragon
// layout (spec.md §6): versions.json lists releases newest-first, and
// champion.json under a version+locale holds the id/name/tags map.
const (
	cdnVersionsPath       = "/api/versions.json"
	cdnChampionDataFormat = "/cdn/%s/data/en_US/champion.json"
)

type cdnChampionEntry struct {
	Key  string `json:"key"`  // numeric id, as a string
	Name string `json:"name"`
}

type cdnChampionData struct {
	Data map[string]cdnChampionEntry `json:"data"`
}

// Refresher pulls champion name data from the vendor CDN and installs it
// into a Registry atomically. On any failure the embedded registry remains
// authoritative — refresh is purely additive/corrective, never required.
type Refresher struct {
	client  *resty.Client
	baseURL string
	log     zerolog.Logger
}

// NewRefresher builds a Refresher against baseURL (the vendor CDN origin)
// using client, which must verify TLS normally (refresh always talks to a
// non-loopback host, unlike the LCU transport).
func NewRefresher(client *resty.Client, baseURL string, log zerolog.Logger) *Refresher {
	return &Refresher{client: client, baseURL: baseURL, log: log.With().Str("component", "champions.cdn").Logger()}
}

// Refresh fetches the latest champion data and swaps it into registry.
// Aptitude weights for champions already known to registry are preserved
// (the CDN carries no aptitude data of its own); champions new to the CDN
// get an empty aptitude map, so role inference places them in the first
// open lane until the embedded data ships an update.
func (r *Refresher) Refresh(ctx context.Context, registry *Registry) error {
	version, err := r.latestVersion(ctx)
	if err != nil {
		return fmt.Errorf("champions: fetch versions: %w", err)
	}

	var data cdnChampionData
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&data).
		Get(r.baseURL + fmt.Sprintf(cdnChampionDataFormat, version))
	if err != nil {
		return fmt.Errorf("champions: fetch champion data: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("champions: champion data http %d", resp.StatusCode())
	}

	existing := registry.current.Load()
	byID := make(map[int]model.Champion, len(data.Data))
	for _, entry := range data.Data {
		rc := rawChampion{Name: entry.Name}
		c := toChampion(0, rc)
		id, err := idFromKey(entry.Key)
		if err != nil {
			continue
		}
		c.ID = id
		if prior, ok := existing.byID[id]; ok {
			c.LaneAptitude = prior.LaneAptitude
		} else {
			c.LaneAptitude = map[model.Role]uint8{}
		}
		byID[id] = c
	}
	if len(byID) == 0 {
		return fmt.Errorf("champions: CDN returned no champions, keeping embedded registry")
	}

	registry.replaceSnapshot(&snapshot{byID: byID})
	r.log.Info().Str("version", version).Int("count", len(byID)).Msg("champion registry refreshed from CDN")
	return nil
}

func (r *Refresher) latestVersion(ctx context.Context) (string, error) {
	var versions []string
	resp, err := r.client.R().SetContext(ctx).SetResult(&versions).Get(r.baseURL + cdnVersionsPath)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("http %d", resp.StatusCode())
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("empty versions list")
	}
	return versions[0], nil
}

func idFromKey(key string) (int, error) {
	var id int
	_, err := fmt.Sscanf(key, "%d", &id)
	return id, err
}

// replaceSnapshot installs a freshly-fetched registry atomically. Only
// called with a fully-built snapshot — never partial.
func (r *Registry) replaceSnapshot(snap *snapshot) {
	r.current.Store(snap)
}
