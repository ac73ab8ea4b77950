package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Autoscale bounds the worker count of an autoscaling cluster.
type Autoscale struct {
	MinWorkers int `yaml:"min_workers" json:"min_workers" validate:"min=0"`
	MaxWorkers int `yaml:"max_workers" json:"max_workers" validate:"required,gtefield=MinWorkers"`
}

// ClusterSpec describes a cluster to be created for a task or shared by a
// workflow. Two specs are considered identical when their canonical
// serializations match byte for byte.
type ClusterSpec struct {
	SparkVersion     string            `yaml:"spark_version"                 json:"spark_version" validate:"required"`
	NodeTypeID       string            `yaml:"node_type_id"                  json:"node_type_id"  validate:"required"`
	DriverNodeTypeID string            `yaml:"driver_node_type_id,omitempty" json:"driver_node_type_id,omitempty"`
	NumWorkers       int               `yaml:"num_workers,omitempty"         json:"num_workers,omitempty"`
	Autoscale        *Autoscale        `yaml:"autoscale,omitempty"           json:"autoscale,omitempty"`
	SparkConf        map[string]string `yaml:"spark_conf,omitempty"          json:"spark_conf,omitempty"`
	SparkEnvVars     map[string]string `yaml:"spark_env_vars,omitempty"      json:"spark_env_vars,omitempty"`
	CustomTags       map[string]string `yaml:"custom_tags,omitempty"         json:"custom_tags,omitempty"`
}

// CanonicalKey derives a stable, content-addressed key for the spec. The key
// is computed from a sorted-key JSON serialization rather than object
// identity, so it is identical across process restarts and across independent
// workflow snapshots carrying equal specs.
func (c *ClusterSpec) CanonicalKey() string {
	// encoding/json emits struct fields in declaration order and map keys
	// sorted, which is canonical enough for equality by content.
	data, err := json.Marshal(c)
	if err != nil {
		// Marshalling a plain struct of strings, ints and string maps
		// cannot fail; keep the signature free of an error return.
		panic("models: marshal cluster spec: " + err.Error())
	}

	sum := sha256.Sum256(data)

	return "cluster-" + hex.EncodeToString(sum[:])[:10]
}
