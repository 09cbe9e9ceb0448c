//go:build release

package deployment

const buildMode = Production
