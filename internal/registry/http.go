package registry

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	berrors "github.com/berthrelease/berth/internal/errors"
	"github.com/berthrelease/berth/pkg/semver"
)

// HTTPAdapter implements Adapter against an npm-registry-shaped HTTP API:
// GET {baseURL}/{name} returns a package document with a "dist-tags" map;
// PUT {baseURL}/{name} accepts a publish document carrying the new
// version's manifest and a base64 attachment, following the same
// attachment shape the npm registry publish protocol uses.
type HTTPAdapter struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
}

// NewHTTPAdapter returns an HTTPAdapter with a default client timeout.
func NewHTTPAdapter(baseURL, authToken string) *HTTPAdapter {
	return &HTTPAdapter{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		AuthToken: authToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type packageDocument struct {
	DistTags map[string]string `json:"dist-tags"`
}

func (a *HTTPAdapter) packageURL(name string) string {
	return a.BaseURL + "/" + url.PathEscape(name)
}

func (a *HTTPAdapter) authorize(req *http.Request) {
	if a.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.AuthToken)
	}
}

// FetchVersion looks up the version currently published under distTag. A
// 404 response means the package has never been published and is not an
// error.
func (a *HTTPAdapter) FetchVersion(name, distTag string) (semver.Version, bool, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, a.packageURL(name), nil)
	if err != nil {
		return semver.Version{}, false, berrors.NewPublishError(name, "failed to build registry request", err)
	}
	a.authorize(req)

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return semver.Version{}, false, berrors.NewPublishError(name, "failed to reach registry", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return semver.Version{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return semver.Version{}, false, berrors.NewPublishError(name, fmt.Sprintf("registry returned status %d", resp.StatusCode), nil)
	}

	var doc packageDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return semver.Version{}, false, berrors.NewPublishError(name, "failed to parse registry response", err)
	}

	versionStr, ok := doc.DistTags[distTag]
	if !ok {
		return semver.Version{}, false, nil
	}

	version, err := semver.Parse(versionStr)
	if err != nil {
		return semver.Version{}, false, berrors.NewPublishError(name, fmt.Sprintf("registry returned invalid version %q", versionStr), err)
	}
	return version, true, nil
}

type publishDocument struct {
	Name        string                     `json:"name"`
	DistTags    map[string]string          `json:"dist-tags"`
	Access      string                     `json:"access,omitempty"`
	Attachments map[string]publishAttached `json:"_attachments"`
}

type publishAttached struct {
	Data string `json:"data"`
}

// Publish uploads archive under distTag, attaching manifest as the
// published version's metadata.
func (a *HTTPAdapter) Publish(name string, archive []byte, manifest []byte, distTag, access string) error {
	var manifestDoc map[string]interface{}
	if err := json.Unmarshal(manifest, &manifestDoc); err != nil {
		return berrors.NewPublishError(name, "failed to parse manifest for publish", err)
	}
	version, _ := manifestDoc["version"].(string)

	doc := publishDocument{
		Name:     name,
		DistTags: map[string]string{distTag: version},
		Access:   access,
		Attachments: map[string]publishAttached{
			fmt.Sprintf("%s-%s.tgz", strings.ReplaceAll(name, "/", "-"), version): {
				Data: base64.StdEncoding.EncodeToString(archive),
			},
		},
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return berrors.NewPublishError(name, "failed to encode publish document", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPut, a.packageURL(name), bytes.NewReader(body))
	if err != nil {
		return berrors.NewPublishError(name, "failed to build publish request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	a.authorize(req)

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return berrors.NewPublishError(name, "failed to reach registry", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return berrors.NewPublishError(name, fmt.Sprintf("registry rejected publish with status %d: %s", resp.StatusCode, string(respBody)), nil)
	}
	return nil
}
