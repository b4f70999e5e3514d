package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// PageConfig is the endpoint configuration handed to a seating chart client
// when its page is rendered.  The JSON keys are part of the client
// contract and must not change.
type PageConfig struct {
	CourseID            uint64 `json:"courseId"`
	SeatingUpdateBase   string `json:"seatingUpdateBase"`
	BehaviourAdjustBase string `json:"behaviourAdjustBase"`
	LayoutsListURL      string `json:"layoutsListUrl"`
	LayoutsSaveURL      string `json:"layoutsSaveUrl"`
	LayoutsLoadBase     string `json:"layoutsLoadBase"`
}

// NewPageConfig returns the endpoint bases served by this service for a
// course.  Bases end with a slash so clients can append identifiers.
func NewPageConfig(courseID uint64) PageConfig {
	root := fmt.Sprintf("/courses/%d/api", courseID)
	return PageConfig{
		CourseID:            courseID,
		SeatingUpdateBase:   root + "/seating/students/",
		BehaviourAdjustBase: root + "/behaviour/",
		LayoutsListURL:      root + "/seating/layouts",
		LayoutsSaveURL:      root + "/seating/layouts",
		LayoutsLoadBase:     root + "/seating/layouts/",
	}
}

// ParsePageConfig decodes a page configuration blob and checks that every
// endpoint needed by the client is present.
func ParsePageConfig(raw []byte) (PageConfig, error) {
	var pc PageConfig
	if err := json.Unmarshal(raw, &pc); err != nil {
		return PageConfig{}, errors.Wrap(err, "decode page config")
	}
	if err := pc.Validate(); err != nil {
		return PageConfig{}, err
	}
	return pc, nil
}

// Validate lists every missing key.
func (pc PageConfig) Validate() error {
	if pc.CourseID == 0 {
		return errors.New("page config: courseId is required")
	}
	missing := []string{}
	for key, v := range map[string]string{
		"seatingUpdateBase":   pc.SeatingUpdateBase,
		"behaviourAdjustBase": pc.BehaviourAdjustBase,
		"layoutsListUrl":      pc.LayoutsListURL,
		"layoutsSaveUrl":      pc.LayoutsSaveURL,
		"layoutsLoadBase":     pc.LayoutsLoadBase,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.Errorf("page config: missing %s", strings.Join(missing, ", "))
	}
	return nil
}
