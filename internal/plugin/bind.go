package plugin

import (
	"git.home.luguber.info/inful/sitewright/internal/lifecycle"
)

// Bind registers every capability the plugin implements with the lifecycle
// registry and returns how many hooks were bound.
//
// Binding is all-or-nothing per plugin: the first registration error aborts,
// leaving earlier registrations in place, so callers should treat an error
// as fatal for the whole load.
func Bind(reg *lifecycle.Registry, p Plugin) (int, error) {
	owner := p.Metadata().Name

	bound := 0
	register := func(name lifecycle.HookName, impl any) error {
		if err := reg.Register(owner, name, impl); err != nil {
			return err
		}
		bound++
		return nil
	}

	type binding struct {
		name lifecycle.HookName
		impl any
	}

	var bindings []binding
	if c, ok := p.(ExtensionsResolver); ok {
		bindings = append(bindings, binding{lifecycle.HookResolvableExtensions, lifecycle.ExtensionsFunc(c.ResolvableExtensions)})
	}
	if c, ok := p.(PageCreator); ok {
		bindings = append(bindings, binding{lifecycle.HookCreatePages, lifecycle.HookFunc(c.CreatePages)})
	}
	if c, ok := p.(StatefulPageCreator); ok {
		bindings = append(bindings, binding{lifecycle.HookCreatePagesStatefully, lifecycle.HookFunc(c.CreatePagesStatefully)})
	}
	if c, ok := p.(NodeSourcer); ok {
		bindings = append(bindings, binding{lifecycle.HookSourceNodes, lifecycle.HookFunc(c.SourceNodes)})
	}
	if c, ok := p.(NodeObserver); ok {
		bindings = append(bindings, binding{lifecycle.HookOnCreateNode, lifecycle.NodeFunc(c.OnCreateNode)})
	}
	if c, ok := p.(NodeFilter); ok {
		bindings = append(bindings, binding{lifecycle.HookShouldOnCreateNode, lifecycle.NodePredicate(c.ShouldOnCreateNode)})
	}
	if c, ok := p.(PageObserver); ok {
		bindings = append(bindings, binding{lifecycle.HookOnCreatePage, lifecycle.PageFunc(c.OnCreatePage)})
	}
	if c, ok := p.(TypeFieldProvider); ok {
		bindings = append(bindings, binding{lifecycle.HookSetFieldsOnGraphQLNodeType, lifecycle.TypeFieldsFunc(c.SetFieldsOnGraphQLNodeType)})
	}
	if c, ok := p.(SchemaCustomizer); ok {
		bindings = append(bindings, binding{lifecycle.HookCreateSchemaCustomization, lifecycle.HookFunc(c.CreateSchemaCustomization)})
	}
	if c, ok := p.(ResolverProvider); ok {
		bindings = append(bindings, binding{lifecycle.HookCreateResolvers, lifecycle.HookFunc(c.CreateResolvers)})
	}
	if c, ok := p.(SourcePreprocessor); ok {
		bindings = append(bindings, binding{lifecycle.HookPreprocessSource, lifecycle.PreprocessFunc(c.PreprocessSource)})
	}
	if c, ok := p.(SideEffectGenerator); ok {
		bindings = append(bindings, binding{lifecycle.HookGenerateSideEffects, lifecycle.HookFunc(c.GenerateSideEffects)})
	}
	if c, ok := p.(BabelConfigurer); ok {
		bindings = append(bindings, binding{lifecycle.HookOnCreateBabelConfig, lifecycle.HookFunc(c.OnCreateBabelConfig)})
	}
	if c, ok := p.(WebpackConfigurer); ok {
		bindings = append(bindings, binding{lifecycle.HookOnCreateWebpackConfig, lifecycle.HookFunc(c.OnCreateWebpackConfig)})
	}
	if c, ok := p.(PreInitializer); ok {
		bindings = append(bindings, binding{lifecycle.HookOnPreInit, lifecycle.HookFunc(c.OnPreInit)})
	}
	if c, ok := p.(PreBootstrapper); ok {
		bindings = append(bindings, binding{lifecycle.HookOnPreBootstrap, lifecycle.HookFunc(c.OnPreBootstrap)})
	}
	if c, ok := p.(PostBootstrapper); ok {
		bindings = append(bindings, binding{lifecycle.HookOnPostBootstrap, lifecycle.HookFunc(c.OnPostBootstrap)})
	}
	if c, ok := p.(PreBuilder); ok {
		bindings = append(bindings, binding{lifecycle.HookOnPreBuild, lifecycle.HookFunc(c.OnPreBuild)})
	}
	if c, ok := p.(PostBuilder); ok {
		bindings = append(bindings, binding{lifecycle.HookOnPostBuild, lifecycle.HookFunc(c.OnPostBuild)})
	}
	if c, ok := p.(PreQueryExtractor); ok {
		bindings = append(bindings, binding{lifecycle.HookOnPreExtractQueries, lifecycle.HookFunc(c.OnPreExtractQueries)})
	}
	if c, ok := p.(DevServerConfigurer); ok {
		bindings = append(bindings, binding{lifecycle.HookOnCreateDevServer, lifecycle.DevServerFunc(c.OnCreateDevServer)})
	}
	if c, ok := p.(OptionsSchemer); ok {
		bindings = append(bindings, binding{lifecycle.HookPluginOptionsSchema, lifecycle.OptionsSchemaFunc(c.PluginOptionsSchema)})
	}

	for _, b := range bindings {
		if err := register(b.name, b.impl); err != nil {
			return bound, err
		}
	}
	return bound, nil
}
