// Package action implements the side-effect channels hooks use to affect
// host state. A hook invocation receives a Set scoped to its descriptor's
// allowlist; invoking a channel outside the allowlist fails with
// NotPermittedError and applies nothing. This is the mechanical enforcement
// of "hooks are otherwise side-effect-free with respect to host state".
package action

import (
	"fmt"
	"net/http"
)

// Kind names a side-effect channel.
type Kind string

const (
	KindCreateNode            Kind = "createNode"
	KindDeleteNode            Kind = "deleteNode"
	KindCreateNodeField       Kind = "createNodeField"
	KindCreateParentChildLink Kind = "createParentChildLink"
	KindCreatePage            Kind = "createPage"
	KindDeletePage            Kind = "deletePage"
	KindCreateTypes           Kind = "createTypes"
	KindCreateFieldExtension  Kind = "createFieldExtension"
	KindCreateResolverBinding Kind = "createResolverBinding"
	KindSetBabelPreset        Kind = "setBabelPreset"
	KindSetWebpackConfig      Kind = "setWebpackConfig"
	KindRegisterExtensions    Kind = "registerExtensions"
	KindSetDevMiddleware      Kind = "setDevMiddleware"
	KindReplaceSource         Kind = "replaceSource"
	KindTriggerSideEffect     Kind = "triggerSideEffect"
)

// Kinds lists every channel, in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindCreateNode, KindDeleteNode, KindCreateNodeField,
		KindCreateParentChildLink, KindCreatePage, KindDeletePage,
		KindCreateTypes, KindCreateFieldExtension, KindCreateResolverBinding,
		KindSetBabelPreset, KindSetWebpackConfig, KindRegisterExtensions,
		KindSetDevMiddleware, KindReplaceSource, KindTriggerSideEffect,
	}
}

// NotPermittedError reports an action invoked by a hook whose descriptor
// does not allow it.
type NotPermittedError struct {
	Hook   string
	Action Kind
}

func (e *NotPermittedError) Error() string {
	return fmt.Sprintf("hook %s may not invoke action %s", e.Hook, e.Action)
}

// MiddlewareSink receives dev-server middleware registered through
// setDevMiddleware. *http.ServeMux satisfies it.
type MiddlewareSink interface {
	Handle(pattern string, handler http.Handler)
}
