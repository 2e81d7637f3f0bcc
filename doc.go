/*
go-coursevec converts satellite imagery of a golf course into structured
vector geometry.  Raw segmentation masks produced by an external perception
model are ingested as candidates, merged across overlapping source images,
described by geometric and color features, classified into course feature
types (green, tee, fairway, bunker, water, rough), gated by confidence with
a human review loop for the uncertain band, assigned to holes, and finally
emitted as an ordered, layered SVG course document.

The perception model and the review GUI are external collaborators, this
module only defines the interfaces it consumes them through.

See example code and usage in the pipeline subpackage.
*/
package coursevec
