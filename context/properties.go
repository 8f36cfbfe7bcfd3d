package context

import (
	"fmt"
	"strconv"
	"time"

	"github.com/flanksource/commons/console"
	"github.com/flanksource/commons/duration"
	"github.com/flanksource/commons/logger"
	"github.com/flanksource/commons/properties"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/samber/lo"
)

var supportedProperties = cmap.New[PropertyType]()

type PropertyType struct {
	Key     string `json:"-"`
	Value   any    `json:"value,omitempty"`
	Default any    `json:"default,omitempty"`
	Type    string `json:"type,omitempty"`
}

func nilSafe(values ...any) string {
	for _, v := range values {
		if v != nil && v != "" {
			switch t := v.(type) {
			case *bool:
				return fmt.Sprintf("%v", *t)
			default:
				return fmt.Sprintf("%v", v)
			}
		}
	}
	return ""
}

func newProp(prop PropertyType) {
	if loaded := supportedProperties.SetIfAbsent(prop.Key, prop); loaded {
		if prop.Value != nil && fmt.Sprintf("%v", prop.Default) != fmt.Sprintf("%v", prop.Value) {
			logger.Debugf("Property overridden %s=%v (default=%v)", prop.Key,
				console.Greenf("%s", nilSafe(prop.Value)),
				nilSafe(prop.Default),
			)
		}
	}
}

// SupportedProperties lists every property that has been read so far.
func SupportedProperties() map[string]PropertyType {
	return supportedProperties.Items()
}

type Properties map[string]string

// On returns true if the first present key is true|enabled|on.
func (p Properties) On(def bool, keys ...string) bool {
	var v *bool
	for _, key := range keys {
		prop := PropertyType{
			Type:    "bool",
			Key:     key,
			Default: def,
		}
		if v == nil {
			k, ok := p.getProperty(key)
			if ok {
				v = lo.ToPtr(k == "true" || k == "enabled" || k == "on")
				prop.Value = v
			}
		}
		newProp(prop)
	}
	if v != nil {
		return *v
	}
	return def
}

func (p Properties) Duration(key string, def time.Duration) time.Duration {
	prop := PropertyType{
		Type:    "duration",
		Key:     key,
		Default: def,
	}
	d, ok := p.getProperty(key)
	if !ok {
		newProp(prop)
		return def
	}

	dur, err := duration.ParseDuration(d)
	if err != nil {
		prop.Value = d
		newProp(prop)
		logger.Warnf("property[%s] invalid duration %s", key, d)
		return def
	}
	prop.Value = time.Duration(dur)
	newProp(prop)
	return time.Duration(dur)
}

func (p Properties) Int(key string, def int) int {
	prop := PropertyType{
		Type:    "int",
		Key:     key,
		Default: def,
	}

	if v, ok := p.getProperty(key); ok {
		prop.Value = v
		if i, err := strconv.Atoi(v); err != nil {
			logger.Warnf("property[%s] invalid int %s", key, v)
		} else {
			prop.Value = i
			newProp(prop)
			return i
		}
	}
	newProp(prop)
	return def
}

func (p Properties) String(key string, def string) string {
	prop := PropertyType{
		Type:    "string",
		Key:     key,
		Default: def,
	}
	if d, ok := p.getProperty(key); ok {
		prop.Value = d
		newProp(prop)
		return d
	}
	newProp(prop)
	return def
}

func (p Properties) getProperty(key string) (string, bool) {
	// Global property takes precendce
	if v := properties.Get(key); v != "" {
		return v, true
	}
	v, ok := p[key]
	return v, ok
}

// Properties returns the properties attached to the context.
func (k Context) Properties() Properties {
	props, _ := k.Value("properties").(map[string]string)
	if props == nil {
		return Properties{}
	}
	return Properties(props)
}
