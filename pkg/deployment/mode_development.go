//go:build !release

package deployment

const buildMode = Development
