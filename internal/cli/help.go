package cli

// HelpText is the general CLI usage message, appended to syntax errors
const HelpText = `
Argus CLI usage:

    argus TASK MODE ARGS

    Where   TASK (optional) is one of [detect, segment, classify]
            MODE (required) is one of [train, val, predict, export]
            ARGS (optional) are any number of 'arg=value' pairs like 'imgsz=320'
                that override the defaults. Run 'argus copy-config' for the
                full list of arguments and their defaults.

Examples:

    Train a detection model for 10 epochs with an initial learning rate of 0.01
        argus detect train data=coco128.yaml model=argus-n.yaml epochs=10 lr0=0.01

    Predict a video with a pretrained segmentation model at image size 320
        argus segment predict model=argus-n-seg.ckpt source=video.mp4 imgsz=320

    Validate a pretrained detection model at batch size 1 and image size 640
        argus detect val model=argus-n.ckpt data=coco128.yaml batch=1 imgsz=640

    Export a classification model to ONNX (no TASK required)
        argus export model=argus-n-cls.ckpt format=onnx imgsz=224

Special commands:

    argus help
    argus checks
    argus version
    argus settings
    argus copy-config
`
