/*
Package gml is a set of libraries for decoding GML (Geography Markup
Language) documents into an in-memory feature model.

Decoding is schema driven: a catalog describes the feature types of an
application schema and the properties they declare, and the decoder
reads each property element according to the kind of its declaration.
Simple values, features, geometries, time objects, time slices,
envelopes, codes, measures and arbitrary generic content are supported.
Documents may also be decoded without a catalog.

References given by xlink:href are collected while decoding and resolved
afterwards, so that a reference may point forwards in its document or
into another document.

The packages are:

  - cursor: a forward-only markup event cursor over encoding/xml
  - catalog: the schema catalog, loadable from YAML
  - feature: the feature model, envelopes and GeoJSON conversion
  - geometry and temporal: decoders for GML geometries and time objects
  - reference: reference registry and external document resolution
  - decoder: the schema-driven object decoder
  - gmlerr: typed decode errors

See cmd/gmlinspect for a command line tool built on these packages.
*/
package gml
