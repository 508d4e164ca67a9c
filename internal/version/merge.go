package version

import "github.com/fossabot/DropOut/internal/model"

// merge folds a parent descriptor into its child, producing one launchable
// descriptor. Child libraries come first so the loader's classes win on the
// classpath; parent arguments come before child additions; the child's main
// class always wins. Fields the child leaves empty fall back to the parent.
// InheritsFrom is cleared on the result.
func merge(child, parent *model.VersionDescriptor) *model.VersionDescriptor {
	out := &model.VersionDescriptor{
		ID:        child.ID,
		MainClass: child.MainClass,
	}

	out.Libraries = make([]model.Library, 0, len(child.Libraries)+len(parent.Libraries))
	out.Libraries = append(out.Libraries, child.Libraries...)
	out.Libraries = append(out.Libraries, parent.Libraries...)

	out.Arguments = mergeArguments(child.Arguments, parent.Arguments)

	out.Downloads = child.Downloads
	if out.Downloads == nil {
		out.Downloads = parent.Downloads
	}
	out.AssetIndex = child.AssetIndex
	if out.AssetIndex == nil {
		out.AssetIndex = parent.AssetIndex
	}
	out.Assets = child.Assets
	if out.Assets == "" {
		out.Assets = parent.Assets
	}
	out.JavaVersion = child.JavaVersion
	if out.JavaVersion == nil {
		out.JavaVersion = parent.JavaVersion
	}
	out.MinecraftArguments = child.MinecraftArguments
	if out.MinecraftArguments == "" {
		out.MinecraftArguments = parent.MinecraftArguments
	}
	out.Type = child.Type
	if out.Type == "" {
		out.Type = parent.Type
	}

	return out
}

func mergeArguments(child, parent *model.Arguments) *model.Arguments {
	switch {
	case child == nil && parent == nil:
		return nil
	case child == nil:
		return parent
	case parent == nil:
		return child
	}
	return &model.Arguments{
		Game: concatArgs(parent.Game, child.Game),
		JVM:  concatArgs(parent.JVM, child.JVM),
	}
}

func concatArgs(parent, child []model.Argument) []model.Argument {
	if len(parent) == 0 {
		return child
	}
	if len(child) == 0 {
		return parent
	}
	out := make([]model.Argument, 0, len(parent)+len(child))
	out = append(out, parent...)
	return append(out, child...)
}
