/*
Package encoder turns a Value graph into the canonical wire representation sent to the
remote evaluation service.

Encoding is deterministic: arguments keep their insertion order and Go maps are
emitted with sorted keys, so serializing the same graph twice yields byte-identical
output suitable for request signing and caching.

# Wire forms

	Invocation     {"function": "<name>", "arguments": {"<arg>": <value>, ...}}
	ConstantValue  {"constantValue": <literal>}
	ArgumentRef    {"type": "ArgumentRef", "value": "<variable>"}
	Function       {"type": "Function", "argumentNames": [...], "body": <value>}
	ValueRef       {"type": "ValueRef", "value": "<slot>"}
	CompoundValue  {"type": "CompoundValue", "scope": [["<slot>", <value>], ...], "value": <value>}
	Containers     {"arrayValue": [...]} / {"dictionaryValue": {...}}

Nodes and functions are deduplicated by identity across the whole graph. An instance
referenced more than once is encoded exactly once and every occurrence becomes a
ValueRef to its slot. The definition goes into the scope of the outermost frame (the
root, or the body of a Function) that binds all of its free variables, so closed
values are defined at the root. Two separately constructed nodes are never merged,
however equal they look.
*/
package encoder
