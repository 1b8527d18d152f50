package runtime

// PluginSymbol is the name of the symbol a runtime plugin exports, it has to be a Factory
const PluginSymbol = "NewRuntime"
